package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/expocenter/stand-reservation/internal/model"
)

// MySQLClaimStore provides data access to the claims table. All
// timestamps are stored and compared in UTC; callers must pass UTC
// instants. The conditional update relies on MySQL's row-level
// atomicity of a single UPDATE statement, so no explicit transaction
// or SELECT ... FOR UPDATE is needed for the compare-and-swap.
//
// Expected schema:
//
//	CREATE TABLE claims (
//	  stand_id     VARCHAR(32)  PRIMARY KEY,
//	  status       VARCHAR(20)  NOT NULL,
//	  holder_token VARCHAR(128) NULL,
//	  acquired_at  DATETIME     NULL,
//	  expires_at   DATETIME     NULL,
//	  note         VARCHAR(255) NOT NULL DEFAULT '',
//	  version      BIGINT UNSIGNED NOT NULL,
//	  CONSTRAINT fk_claims_stand FOREIGN KEY (stand_id) REFERENCES stands(id)
//	);
type MySQLClaimStore struct {
	db *sql.DB
}

// NewMySQLClaimStore returns a MySQLClaimStore bound to the provided database.
func NewMySQLClaimStore(db *sql.DB) *MySQLClaimStore { return &MySQLClaimStore{db: db} }

// DB exposes the underlying handle so provisioning can share a
// transaction between the stands and claims inserts.
func (s *MySQLClaimStore) DB() *sql.DB { return s.db }

const claimColumns = `stand_id, status, holder_token, acquired_at, expires_at, note, version`

// scanClaim reads one claim row from a scannable source, converting
// the nullable columns into the model's pointer/empty representations.
func scanClaim(row interface{ Scan(...any) error }) (*model.Claim, error) {
	var (
		c      model.Claim
		holder sql.NullString
		acq    sql.NullTime
		exp    sql.NullTime
	)
	if err := row.Scan(&c.StandID, &c.Status, &holder, &acq, &exp, &c.Note, &c.Version); err != nil {
		return nil, err
	}
	if holder.Valid {
		c.HolderToken = holder.String
	}
	if acq.Valid {
		t := acq.Time.UTC()
		c.AcquiredAt = &t
	}
	if exp.Valid {
		t := exp.Time.UTC()
		c.ExpiresAt = &t
	}
	return &c, nil
}

// Get returns the claim row for a stand, or ErrStandNotFound when the
// stand has never been provisioned.
func (s *MySQLClaimStore) Get(ctx context.Context, standID string) (*model.Claim, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE stand_id = ?`, standID)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStandNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns all claim rows ordered by stand id.
func (s *MySQLClaimStore) List(ctx context.Context) ([]model.Claim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+claimColumns+` FROM claims ORDER BY stand_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectClaims(rows)
}

// FindByHolder returns claims bound to the given token in HELD or
// PENDING_APPROVAL state. The query does not filter on expires_at;
// logical expiry is the coordinator's concern.
func (s *MySQLClaimStore) FindByHolder(ctx context.Context, holderToken string) ([]model.Claim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+claimColumns+` FROM claims
		 WHERE holder_token = ? AND status IN ('HELD', 'PENDING_APPROVAL')
		 ORDER BY stand_id`, holderToken)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectClaims(rows)
}

// ListExpiredHeld returns HELD claims whose deadline is at or before
// now. The sweeper reverts each with a guarded Update so a hold that
// was renewed or converted between the scan and the write is skipped.
func (s *MySQLClaimStore) ListExpiredHeld(ctx context.Context, now time.Time) ([]model.Claim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+claimColumns+` FROM claims
		 WHERE status = 'HELD' AND expires_at <= ?
		 ORDER BY stand_id`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectClaims(rows)
}

// Update performs the conditional write. A single UPDATE guarded on
// both stand_id and version is atomic with respect to concurrent
// writers: at most one statement presenting a given version can match
// the row. RowsAffected distinguishes a lost race from an unknown
// stand via a follow-up existence check.
func (s *MySQLClaimStore) Update(ctx context.Context, standID string, expectedVersion uint64, next model.Claim) error {
	var (
		holder sql.NullString
		acq    sql.NullTime
		exp    sql.NullTime
	)
	if next.HolderToken != "" {
		holder = sql.NullString{String: next.HolderToken, Valid: true}
	}
	if next.AcquiredAt != nil {
		acq = sql.NullTime{Time: next.AcquiredAt.UTC(), Valid: true}
	}
	if next.ExpiresAt != nil {
		exp = sql.NullTime{Time: next.ExpiresAt.UTC(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE claims
		 SET status = ?, holder_token = ?, acquired_at = ?, expires_at = ?, note = ?, version = version + 1
		 WHERE stand_id = ? AND version = ?`,
		next.Status, holder, acq, exp, next.Note, standID, expectedVersion)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	// Zero rows: either the version moved or the stand does not exist.
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM claims WHERE stand_id = ?`, standID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStandNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

func collectClaims(rows *sql.Rows) ([]model.Claim, error) {
	var claims []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return claims, nil
}
