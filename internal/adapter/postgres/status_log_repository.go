package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

const schema = `
	CREATE TABLE IF NOT EXISTS order_status_log (
		id           BIGSERIAL PRIMARY KEY,
		order_id     TEXT        NOT NULL,
		order_number INTEGER     NOT NULL,
		old_status   TEXT        NOT NULL,
		new_status   TEXT        NOT NULL,
		changed_at   TIMESTAMPTZ NOT NULL
	)
`

const schemaIndex = `
	CREATE INDEX IF NOT EXISTS order_status_log_order_id_idx
		ON order_status_log (order_id, changed_at)
`

type statusLogRepository struct {
	db DB
}

func NewStatusLogRepository(db DB) interfaces.StatusLogRepository {
	return &statusLogRepository{db: db}
}

// EnsureSchema creates the status log table if it does not exist yet.
func EnsureSchema(ctx context.Context, db DB) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create order_status_log: %w", err)
	}
	if _, err := tx.Exec(ctx, schemaIndex); err != nil {
		return fmt.Errorf("failed to create order_status_log index: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *statusLogRepository) LogStatus(ctx context.Context, entry interfaces.StatusLogEntry) error {
	query := `
		INSERT INTO order_status_log (order_id, order_number, old_status, new_status, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		entry.OrderID, entry.OrderNumber, string(entry.OldStatus), string(entry.NewStatus), entry.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}

func (r *statusLogRepository) GetStatusHistory(ctx context.Context, orderID string) ([]interfaces.StatusLogEntry, error) {
	query := `
		SELECT id, order_id, order_number, old_status, new_status, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []interfaces.StatusLogEntry
	for rows.Next() {
		var entry interfaces.StatusLogEntry
		var oldStatus, newStatus string
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.OrderNumber, &oldStatus, &newStatus, &entry.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		entry.OldStatus = domain.Status(oldStatus)
		entry.NewStatus = domain.Status(newStatus)
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status history: %w", err)
	}

	return logs, nil
}
