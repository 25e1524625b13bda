package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
)

// GormStore is the Store backed by the application database.
type GormStore struct {
	db *gorm.DB
	// rowLocks enables SELECT ... FOR UPDATE on balance reads. SQLite has
	// no row locks and serializes writers on its own.
	rowLocks bool
}

// NewGormStore returns a Store over db. db may be a transaction handle, in
// which case every write joins that transaction.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, rowLocks: db.Dialector.Name() == "postgres"}
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Atomic runs fn in a database transaction. Nested calls become savepoints.
func (s *GormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, rowLocks: s.rowLocks})
	})
}

// EnsureBalance creates a zero balance row for owner unless one exists.
func (s *GormStore) EnsureBalance(ctx context.Context, owner Owner) error {
	var row interface{}
	if owner.IsReserve() {
		row = &models.ReserveBalance{ID: models.ReserveID, CurrentBalance: decimal.Zero}
	} else {
		row = &models.WalletBalance{UserID: owner.UserID, CurrentBalance: decimal.Zero}
	}
	return s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

// ReadBalance returns owner's balance, or nil when no row exists yet.
func (s *GormStore) ReadBalance(ctx context.Context, owner Owner, forUpdate bool) (*Balance, error) {
	q := s.conn(ctx)
	if forUpdate && s.rowLocks {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	if owner.IsReserve() {
		var row models.ReserveBalance
		if err := q.Where("id = ?", models.ReserveID).Take(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return &Balance{Owner: owner, Amount: row.CurrentBalance, Version: row.Version, UpdatedAt: row.UpdatedAt}, nil
	}

	var row models.WalletBalance
	if err := q.Where("user_id = ?", owner.UserID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &Balance{Owner: owner, Amount: row.CurrentBalance, Version: row.Version, UpdatedAt: row.UpdatedAt}, nil
}

// WriteBalance is a compare-and-set on the version column.
func (s *GormStore) WriteBalance(ctx context.Context, owner Owner, amount decimal.Decimal, expectedVersion, nextVersion int64) error {
	updates := map[string]interface{}{
		"current_balance": amount,
		"version":         nextVersion,
		"updated_at":      time.Now(),
	}

	var res *gorm.DB
	if owner.IsReserve() {
		res = s.conn(ctx).Model(&models.ReserveBalance{}).
			Where("id = ? AND version = ?", models.ReserveID, expectedVersion).
			Updates(updates)
	} else {
		res = s.conn(ctx).Model(&models.WalletBalance{}).
			Where("user_id = ? AND version = ?", owner.UserID, expectedVersion).
			Updates(updates)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrConcurrentUpdate
	}
	return nil
}

// AppendWalletTransaction inserts rec and fills its id and timestamps.
func (s *GormStore) AppendWalletTransaction(ctx context.Context, rec *models.WalletTransaction) error {
	return s.conn(ctx).Create(rec).Error
}

// AppendReserveTransaction inserts rec and fills its id and timestamps.
func (s *GormStore) AppendReserveTransaction(ctx context.Context, rec *models.ReserveTransaction) error {
	return s.conn(ctx).Create(rec).Error
}

// FindTransactionByRelatedExpense returns the earliest entry linked to
// expenseID, or nil.
func (s *GormStore) FindTransactionByRelatedExpense(ctx context.Context, expenseID string) (*models.WalletTransaction, error) {
	var rec models.WalletTransaction
	err := s.conn(ctx).
		Where("related_expense_id = ?", expenseID).
		Order("sequence ASC").
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListTransactionsByRelatedExpense returns every entry linked to expenseID
// in the order they were applied.
func (s *GormStore) ListTransactionsByRelatedExpense(ctx context.Context, expenseID string) ([]models.WalletTransaction, error) {
	var recs []models.WalletTransaction
	err := s.conn(ctx).
		Where("related_expense_id = ?", expenseID).
		Order("sequence ASC").
		Find(&recs).Error
	return recs, err
}

func (s *GormStore) walletQuery(ctx context.Context, userID string, f Filter) *gorm.DB {
	return applyFilter(s.conn(ctx).Model(&models.WalletTransaction{}).Where("user_id = ?", userID), f)
}

// ListWalletTransactions returns a page of userID's entries, newest first,
// and the total number matching f.
func (s *GormStore) ListWalletTransactions(ctx context.Context, userID string, f Filter) ([]models.WalletTransaction, int64, error) {
	var total int64
	if err := s.walletQuery(ctx, userID, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []models.WalletTransaction
	q := s.walletQuery(ctx, userID, f).Order("sequence DESC")
	if err := paginate(q, f).Find(&recs).Error; err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func (s *GormStore) reserveQuery(ctx context.Context, f Filter) *gorm.DB {
	return applyFilter(s.conn(ctx).Model(&models.ReserveTransaction{}), f)
}

// ListReserveTransactions returns a page of reserve entries, newest first,
// and the total number matching f.
func (s *GormStore) ListReserveTransactions(ctx context.Context, f Filter) ([]models.ReserveTransaction, int64, error) {
	var total int64
	if err := s.reserveQuery(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []models.ReserveTransaction
	q := s.reserveQuery(ctx, f).Order("sequence DESC")
	if err := paginate(q, f).Find(&recs).Error; err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// Entries returns owner's full log in sequence order.
func (s *GormStore) Entries(ctx context.Context, owner Owner) ([]Entry, error) {
	var entries []Entry
	var q *gorm.DB
	if owner.IsReserve() {
		q = s.conn(ctx).Model(&models.ReserveTransaction{})
	} else {
		q = s.conn(ctx).Model(&models.WalletTransaction{}).Where("user_id = ?", owner.UserID)
	}
	err := q.Select("id, sequence, type, amount, balance_after").
		Order("sequence ASC").
		Scan(&entries).Error
	return entries, err
}

// WalletOwners returns the ids of every user holding a wallet.
func (s *GormStore) WalletOwners(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.conn(ctx).Model(&models.WalletBalance{}).Order("user_id").Pluck("user_id", &ids).Error
	return ids, err
}

// ListWalletBalances returns every wallet with its user.
func (s *GormStore) ListWalletBalances(ctx context.Context) ([]models.WalletBalance, error) {
	var rows []models.WalletBalance
	err := s.conn(ctx).Preload("User").Order("user_id").Find(&rows).Error
	return rows, err
}

func applyFilter(db *gorm.DB, f Filter) *gorm.DB {
	if f.Type != nil {
		db = db.Where("type = ?", *f.Type)
	}
	if f.From != nil {
		db = db.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("date <= ?", *f.To)
	}
	return db
}

func paginate(db *gorm.DB, f Filter) *gorm.DB {
	if f.Offset > 0 {
		db = db.Offset(f.Offset)
	}
	if f.Limit > 0 {
		db = db.Limit(f.Limit)
	}
	return db
}

var _ Store = (*GormStore)(nil)
