package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zithekhosa/propflow/internal/domain"
)

// TenancyRepository implements domain.TenancyRepository using SQLite.
type TenancyRepository struct {
	store *Store
}

// Compile-time check: TenancyRepository implements the domain port.
var _ domain.TenancyRepository = (*TenancyRepository)(nil)

func (r *TenancyRepository) Create(ctx context.Context, t domain.Tenancy) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tenancies (id, tenant_id, property_id, lease_start, lease_end, rent_amount,
		                        status, notice_reason, notice_issued_at, notice_expires_at, created_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.TenantID, t.PropertyID,
		formatTime(t.LeaseStart), formatTime(t.LeaseEnd), t.RentAmount,
		string(t.State), string(t.NoticeReason),
		formatOptionalTime(t.NoticeIssuedAt), formatOptionalTime(t.NoticeExpiresAt),
		formatTime(t.CreatedAt), t.Version,
	)
	if err != nil {
		return fmt.Errorf("inserting tenancy: %w", err)
	}

	if err := appendHistory(ctx, tx, domain.TenancyWorkflow.Name, t.Instance); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *TenancyRepository) GetByID(ctx context.Context, id string) (domain.Tenancy, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, property_id, lease_start, lease_end, rent_amount,
		        status, notice_reason, notice_issued_at, notice_expires_at, created_at, version
		 FROM tenancies WHERE id = ?`, id,
	)

	t, err := scanTenancy(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Tenancy{}, domain.ErrTenancyNotFound
		}
		return domain.Tenancy{}, fmt.Errorf("scanning tenancy: %w", err)
	}

	t.History, err = loadHistory(ctx, r.store.db, domain.TenancyWorkflow.Name, t.ID)
	if err != nil {
		return domain.Tenancy{}, err
	}
	return t, nil
}

func (r *TenancyRepository) List(ctx context.Context, filter domain.TenancyFilter) ([]domain.Tenancy, error) {
	query := `SELECT id, tenant_id, property_id, lease_start, lease_end, rent_amount,
	                 status, notice_reason, notice_issued_at, notice_expires_at, created_at, version
	          FROM tenancies`
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
		return nil, fmt.Errorf("listing tenancies: %w", err)
	}
	defer rows.Close()

	var tenancies []domain.Tenancy
	for rows.Next() {
		t, err := scanTenancy(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning tenancy row: %w", err)
		}
		tenancies = append(tenancies, t)
	}

	return tenancies, rows.Err()
}

// Update persists a transitioned tenancy. The row must still be at the
// version the transition started from; otherwise the caller gets
// domain.ErrConflict and should reload.
func (r *TenancyRepository) Update(ctx context.Context, t domain.Tenancy) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE tenancies
		 SET status = ?, notice_reason = ?, notice_issued_at = ?, notice_expires_at = ?, version = ?
		 WHERE id = ? AND version = ?`,
		string(t.State), string(t.NoticeReason),
		formatOptionalTime(t.NoticeIssuedAt), formatOptionalTime(t.NoticeExpiresAt),
		t.Version, t.ID, t.Version-1,
	)
	if err != nil {
		return fmt.Errorf("updating tenancy: %w", err)
	}

	if err := casUpdate(ctx, tx, result, "tenancies", t.ID, domain.ErrTenancyNotFound); err != nil {
		return err
	}

	if err := appendHistory(ctx, tx, domain.TenancyWorkflow.Name, t.Instance); err != nil {
		return err
	}

	return tx.Commit()
}

// scanTenancy scans one tenancy row via the given Scan function, shared by
// QueryRow and Rows.
func scanTenancy(scan func(...any) error) (domain.Tenancy, error) {
	var t domain.Tenancy
	var status, noticeReason, leaseStart, leaseEnd string
	var noticeIssuedAt, noticeExpiresAt, createdAt string

	err := scan(&t.ID, &t.TenantID, &t.PropertyID, &leaseStart, &leaseEnd, &t.RentAmount,
		&status, &noticeReason, &noticeIssuedAt, &noticeExpiresAt, &createdAt, &t.Version)
	if err != nil {
		return domain.Tenancy{}, err
	}

	t.State = domain.State(status)
	t.NoticeReason = domain.NoticeReason(noticeReason)
	t.LeaseStart = parseTime(leaseStart)
	t.LeaseEnd = parseTime(leaseEnd)
	t.NoticeIssuedAt = parseOptionalTime(noticeIssuedAt)
	t.NoticeExpiresAt = parseOptionalTime(noticeExpiresAt)
	t.CreatedAt = parseTime(createdAt)

	return t, nil
}
