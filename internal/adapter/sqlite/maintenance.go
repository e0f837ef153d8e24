package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zithekhosa/propflow/internal/domain"
)

// MaintenanceRepository implements domain.MaintenanceRepository using
// SQLite. Bids live in their own table with a (request_id, provider_id)
// primary key, which backs the one-bid-per-provider rule at the schema
// level too.
type MaintenanceRepository struct {
	store *Store
}

// Compile-time check: MaintenanceRepository implements the domain port.
var _ domain.MaintenanceRepository = (*MaintenanceRepository)(nil)

func (r *MaintenanceRepository) Create(ctx context.Context, m domain.MaintenanceRequest) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO maintenance_requests (id, property_id, tenant_id, category, priority,
		                                   is_emergency, estimated_cost, payment_preference, status, created_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.PropertyID, m.TenantID, m.Category, string(m.Priority),
		boolToInt(m.IsEmergency), m.EstimatedCost, string(m.PaymentPreference),
		string(m.State), formatTime(m.CreatedAt), m.Version,
	)
	if err != nil {
		return fmt.Errorf("inserting maintenance request: %w", err)
	}

	if err := insertBids(ctx, tx, m); err != nil {
		return err
	}

	if err := appendHistory(ctx, tx, domain.MaintenanceWorkflow.Name, m.Instance); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *MaintenanceRepository) GetByID(ctx context.Context, id string) (domain.MaintenanceRequest, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT id, property_id, tenant_id, category, priority, is_emergency,
		        estimated_cost, payment_preference, status, created_at, version
		 FROM maintenance_requests WHERE id = ?`, id,
	)

	m, err := scanRequest(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.MaintenanceRequest{}, domain.ErrRequestNotFound
		}
		return domain.MaintenanceRequest{}, fmt.Errorf("scanning maintenance request: %w", err)
	}

	m.Bids, err = r.loadBids(ctx, m.ID)
	if err != nil {
		return domain.MaintenanceRequest{}, err
	}

	m.History, err = loadHistory(ctx, r.store.db, domain.MaintenanceWorkflow.Name, m.ID)
	if err != nil {
		return domain.MaintenanceRequest{}, err
	}
	return m, nil
}

func (r *MaintenanceRepository) List(ctx context.Context, filter domain.RequestFilter) ([]domain.MaintenanceRequest, error) {
	query := `SELECT id, property_id, tenant_id, category, priority, is_emergency,
	                 estimated_cost, payment_preference, status, created_at, version
	          FROM maintenance_requests`
	var conditions []string
	var args []any

	if filter.Status != nil {
		conditions = append(conditions, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.PropertyID != "" {
		conditions = append(conditions, `property_id = ?`)
		args = append(args, filter.PropertyID)
	}
	query += whereClause(conditions)
	query += ` ORDER BY created_at DESC`
	query, args = withPaging(query, args, filter.Limit, filter.Offset)

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance requests: %w", err)
	}
	defer rows.Close()

	var requests []domain.MaintenanceRequest
	for rows.Next() {
		m, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning maintenance request row: %w", err)
		}
		requests = append(requests, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range requests {
		requests[i].Bids, err = r.loadBids(ctx, requests[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return requests, nil
}

// Update persists a transitioned request under the version compare-and-swap
// and reconciles the bid rows. Two concurrent accepts serialize here: the
// loser's version no longer matches and it gets domain.ErrConflict.
func (r *MaintenanceRepository) Update(ctx context.Context, m domain.MaintenanceRequest) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE maintenance_requests SET status = ?, version = ?
		 WHERE id = ? AND version = ?`,
		string(m.State), m.Version, m.ID, m.Version-1,
	)
	if err != nil {
		return fmt.Errorf("updating maintenance request: %w", err)
	}

	if err := casUpdate(ctx, tx, result, "maintenance_requests", m.ID, domain.ErrRequestNotFound); err != nil {
		return err
	}

	// Bids are replaced wholesale; the set is small and acceptance flips
	// the accepted flag on existing rows.
	if _, err := tx.ExecContext(ctx, `DELETE FROM bids WHERE request_id = ?`, m.ID); err != nil {
		return fmt.Errorf("clearing bids: %w", err)
	}
	if err := insertBids(ctx, tx, m); err != nil {
		return err
	}

	if err := appendHistory(ctx, tx, domain.MaintenanceWorkflow.Name, m.Instance); err != nil {
		return err
	}

	return tx.Commit()
}

func insertBids(ctx context.Context, tx *sql.Tx, m domain.MaintenanceRequest) error {
	for _, b := range m.Bids {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bids (request_id, provider_id, amount, message, submitted_at, accepted)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, b.ProviderID, b.Amount, b.Message, formatTime(b.SubmittedAt), boolToInt(b.Accepted),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return &domain.GuardError{
					Reason: domain.GuardDuplicateBid,
					Detail: fmt.Sprintf("provider %q already bid on this request", b.ProviderID),
				}
			}
			return fmt.Errorf("inserting bid: %w", err)
		}
	}
	return nil
}

func (r *MaintenanceRepository) loadBids(ctx context.Context, requestID string) ([]domain.Bid, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT provider_id, amount, message, submitted_at, accepted
		 FROM bids WHERE request_id = ? ORDER BY submitted_at, provider_id`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading bids: %w", err)
	}
	defer rows.Close()

	var bids []domain.Bid
	for rows.Next() {
		var b domain.Bid
		var submittedAt string
		var accepted int
		if err := rows.Scan(&b.ProviderID, &b.Amount, &b.Message, &submittedAt, &accepted); err != nil {
			return nil, fmt.Errorf("scanning bid: %w", err)
		}
		b.SubmittedAt = parseTime(submittedAt)
		b.Accepted = accepted != 0
		bids = append(bids, b)
	}

	return bids, rows.Err()
}

func scanRequest(scan func(...any) error) (domain.MaintenanceRequest, error) {
	var m domain.MaintenanceRequest
	var priority, pref, status, createdAt string
	var emergency int

	err := scan(&m.ID, &m.PropertyID, &m.TenantID, &m.Category, &priority, &emergency,
		&m.EstimatedCost, &pref, &status, &createdAt, &m.Version)
	if err != nil {
		return domain.MaintenanceRequest{}, err
	}

	m.Priority = domain.Priority(priority)
	m.IsEmergency = emergency != 0
	m.PaymentPreference = domain.PaymentPreference(pref)
	m.State = domain.State(status)
	m.CreatedAt = parseTime(createdAt)

	return m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
