package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"github.com/go-sql-driver/mysql"

	"github.com/expocenter/stand-reservation/internal/model"
)

// StandCatalog provides access to the stand catalog. Create also
// provisions the stand's initial AVAILABLE claim row so that the
// one-claim-per-stand invariant holds from the moment a stand exists.
type StandCatalog interface {
	Create(ctx context.Context, stand model.Stand) error
	Get(ctx context.Context, standID string) (*model.Stand, error)
	List(ctx context.Context) ([]model.Stand, error)
}

// MySQLStandRepo stores the catalog in the stands table.
//
// Expected schema:
//
//	CREATE TABLE stands (
//	  id          VARCHAR(32)  PRIMARY KEY,
//	  category    VARCHAR(32)  NOT NULL,
//	  size_m2     INT UNSIGNED NOT NULL,
//	  price_cents BIGINT UNSIGNED NOT NULL
//	);
type MySQLStandRepo struct {
	db *sql.DB
}

// NewMySQLStandRepo returns a MySQLStandRepo bound to the provided database.
func NewMySQLStandRepo(db *sql.DB) *MySQLStandRepo { return &MySQLStandRepo{db: db} }

// Create inserts the stand and its AVAILABLE claim row in one
// transaction so a crash cannot leave a stand without a claim.
func (r *MySQLStandRepo) Create(ctx context.Context, stand model.Stand) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO stands (id, category, size_m2, price_cents) VALUES (?, ?, ?, ?)`,
		stand.ID, stand.Category, stand.SizeM2, stand.PriceCents)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 { // duplicate key
			return ErrDuplicateStand
		}
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO claims (stand_id, status, note, version) VALUES (?, 'AVAILABLE', '', 1)`,
		stand.ID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Get returns one stand by id, or ErrStandNotFound.
func (r *MySQLStandRepo) Get(ctx context.Context, standID string) (*model.Stand, error) {
	var s model.Stand
	err := r.db.QueryRowContext(ctx,
		`SELECT id, category, size_m2, price_cents FROM stands WHERE id = ?`, standID).
		Scan(&s.ID, &s.Category, &s.SizeM2, &s.PriceCents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStandNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns the full catalog ordered by stand id.
func (r *MySQLStandRepo) List(ctx context.Context) ([]model.Stand, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category, size_m2, price_cents FROM stands ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stands []model.Stand
	for rows.Next() {
		var s model.Stand
		if err := rows.Scan(&s.ID, &s.Category, &s.SizeM2, &s.PriceCents); err != nil {
			return nil, err
		}
		stands = append(stands, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stands, nil
}

// MemoryStandRepo keeps the catalog in memory, provisioning claim rows
// on the companion MemoryClaimStore. Used by tests and dev mode.
type MemoryStandRepo struct {
	mu     sync.Mutex
	stands map[string]model.Stand
	claims *MemoryClaimStore
}

// NewMemoryStandRepo returns a MemoryStandRepo wired to the given claim store.
func NewMemoryStandRepo(claims *MemoryClaimStore) *MemoryStandRepo {
	return &MemoryStandRepo{stands: make(map[string]model.Stand), claims: claims}
}

// Create inserts the stand and provisions its claim row.
func (r *MemoryStandRepo) Create(_ context.Context, stand model.Stand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stands[stand.ID]; ok {
		return ErrDuplicateStand
	}
	if err := r.claims.Provision(stand.ID); err != nil {
		return err
	}
	r.stands[stand.ID] = stand
	return nil
}

// Get returns one stand by id.
func (r *MemoryStandRepo) Get(_ context.Context, standID string) (*model.Stand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stands[standID]
	if !ok {
		return nil, ErrStandNotFound
	}
	return &s, nil
}

// List returns the catalog ordered by stand id.
func (r *MemoryStandRepo) List(_ context.Context) ([]model.Stand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Stand, 0, len(r.stands))
	for _, s := range r.stands {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
