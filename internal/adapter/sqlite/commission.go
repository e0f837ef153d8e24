package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zithekhosa/propflow/internal/domain"
)

// CommissionRepository implements domain.CommissionRepository using SQLite.
// The schema CHECK constraint keeps the stored status to pending/paid;
// overdue exists only as a read-time derivation.
type CommissionRepository struct {
	store *Store
}

// Compile-time check: CommissionRepository implements the domain port.
var _ domain.CommissionRepository = (*CommissionRepository)(nil)

func (r *CommissionRepository) Create(ctx context.Context, d domain.CommissionDeal) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO commission_deals (id, deal_type, deal_value, commission_rate,
		                               closing_date, due_date, payment_date, status, created_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, string(d.DealType), d.DealValue, d.CommissionRate,
		formatTime(d.ClosingDate), formatTime(d.DueDate), paymentDateValue(d),
		string(d.State), formatTime(d.CreatedAt), d.Version,
	)
	if err != nil {
		return fmt.Errorf("inserting commission deal: %w", err)
	}

	if err := appendHistory(ctx, tx, domain.CommissionWorkflow.Name, d.Instance); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *CommissionRepository) GetByID(ctx context.Context, id string) (domain.CommissionDeal, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT id, deal_type, deal_value, commission_rate, closing_date, due_date,
		        payment_date, status, created_at, version
		 FROM commission_deals WHERE id = ?`, id,
	)

	d, err := scanDeal(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.CommissionDeal{}, domain.ErrDealNotFound
		}
		return domain.CommissionDeal{}, fmt.Errorf("scanning commission deal: %w", err)
	}

	d.History, err = loadHistory(ctx, r.store.db, domain.CommissionWorkflow.Name, d.ID)
	if err != nil {
		return domain.CommissionDeal{}, err
	}
	return d, nil
}

func (r *CommissionRepository) List(ctx context.Context, filter domain.DealFilter) ([]domain.CommissionDeal, error) {
	query := `SELECT id, deal_type, deal_value, commission_rate, closing_date, due_date,
	                 payment_date, status, created_at, version
	          FROM commission_deals`
	var conditions []string
	var args []any

	if filter.Status != nil {
		conditions = append(conditions, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	query += whereClause(conditions)
	query += ` ORDER BY created_at DESC`
	query, args = withPaging(query, args, filter.Limit, filter.Offset)

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing commission deals: %w", err)
	}
	defer rows.Close()

	var deals []domain.CommissionDeal
	for rows.Next() {
		d, err := scanDeal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning commission deal row: %w", err)
		}
		deals = append(deals, d)
	}

	return deals, rows.Err()
}

func (r *CommissionRepository) Update(ctx context.Context, d domain.CommissionDeal) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE commission_deals SET status = ?, payment_date = ?, version = ?
		 WHERE id = ? AND version = ?`,
		string(d.State), paymentDateValue(d), d.Version, d.ID, d.Version-1,
	)
	if err != nil {
		return fmt.Errorf("updating commission deal: %w", err)
	}

	if err := casUpdate(ctx, tx, result, "commission_deals", d.ID, domain.ErrDealNotFound); err != nil {
		return err
	}

	if err := appendHistory(ctx, tx, domain.CommissionWorkflow.Name, d.Instance); err != nil {
		return err
	}

	return tx.Commit()
}

func paymentDateValue(d domain.CommissionDeal) any {
	if d.PaymentDate == nil {
		return nil
	}
	return formatTime(*d.PaymentDate)
}

func scanDeal(scan func(...any) error) (domain.CommissionDeal, error) {
	var d domain.CommissionDeal
	var dealType, closingDate, dueDate, status, createdAt string
	var paymentDate sql.NullString

	err := scan(&d.ID, &dealType, &d.DealValue, &d.CommissionRate, &closingDate, &dueDate,
		&paymentDate, &status, &createdAt, &d.Version)
	if err != nil {
		return domain.CommissionDeal{}, err
	}

	d.DealType = domain.DealType(dealType)
	d.ClosingDate = parseTime(closingDate)
	d.DueDate = parseTime(dueDate)
	d.State = domain.State(status)
	d.CreatedAt = parseTime(createdAt)
	if paymentDate.Valid {
		paid := parseTime(paymentDate.String)
		d.PaymentDate = &paid
	}

	return d, nil
}
