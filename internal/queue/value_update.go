package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"mesctx/internal/util"
	"mesctx/pkg/common"
	"mesctx/pkg/logger"
)

// ValueUpdateMsg is the payload on value_update_queue: one wholesale
// attribute replacement for one entity, stamped with the correlation id
// the API returned to the caller.
type ValueUpdateMsg struct {
	EntityID      string                      `json:"entity_id"`
	Attributes    map[string]common.AttrValue `json:"attributes"`
	CorrelationID string                      `json:"correlation_id"`
	RequestedBy   string                      `json:"requested_by,omitempty"`
}

// ValueWriter is the slice of the source surface the worker needs.
// *source.Router implements it.
type ValueWriter interface {
	UpdateValue(ctx context.Context, id string, attrs map[string]common.AttrValue) error
}

// ProcessValueUpdate applies one queued attribute update against the
// owning backend service. Transient backend errors are retried in-process
// before the message is handed back to the broker's retry machinery.
func ProcessValueUpdate(ctx context.Context, writer ValueWriter, msg string) error {
	data := new(ValueUpdateMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("malformed value update message: %w", err)
	}
	if data.EntityID == "" {
		return fmt.Errorf("value update message without entity id")
	}

	err := util.RetryErrWithContext(ctx, 3, func(ctx context.Context) error {
		return writer.UpdateValue(ctx, data.EntityID, data.Attributes)
	})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", data.EntityID, err)
	}

	logger.Info("[Queue] Value update applied",
		"entity_id", data.EntityID,
		"correlation_id", data.CorrelationID,
		"attributes", len(data.Attributes),
	)
	return nil
}
