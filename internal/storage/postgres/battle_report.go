package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrReportNotFound is returned when a report lookup yields no results.
var ErrReportNotFound = errors.New("battle report not found")

// BattleReport summarises one finished combat.
type BattleReport struct {
	ID        uuid.UUID
	CombatID  string
	Outcome   string
	Turns     int
	Allies    []string
	Enemies   []string
	Actions   int
	BRVDamage int64
	HPDamage  int64
	Breaks    int
	Criticals int
	StartedAt time.Time
	EndedAt   time.Time
}

// BattleReportRepository provides battle report persistence operations.
type BattleReportRepository struct {
	db *pgxpool.Pool
}

// NewBattleReportRepository creates a BattleReportRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBattleReportRepository(db *pgxpool.Pool) *BattleReportRepository {
	return &BattleReportRepository{db: db}
}

// Create inserts r, assigning a fresh ID when r.ID is zero.
//
// Precondition: r.CombatID and r.Outcome must be non-empty.
// Postcondition: Returns the stored report with ID set.
func (r *BattleReportRepository) Create(ctx context.Context, rep BattleReport) (BattleReport, error) {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	if rep.Allies == nil {
		rep.Allies = []string{}
	}
	if rep.Enemies == nil {
		rep.Enemies = []string{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO battle_reports
		   (id, combat_id, outcome, turns, allies, enemies, actions,
		    brv_damage, hp_damage, breaks, criticals, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rep.ID, rep.CombatID, rep.Outcome, rep.Turns, rep.Allies, rep.Enemies, rep.Actions,
		rep.BRVDamage, rep.HPDamage, rep.Breaks, rep.Criticals, rep.StartedAt, rep.EndedAt,
	)
	if err != nil {
		return BattleReport{}, fmt.Errorf("inserting battle report for %s: %w", rep.CombatID, err)
	}
	return rep, nil
}

const reportColumns = `id, combat_id, outcome, turns, allies, enemies, actions,
	brv_damage, hp_damage, breaks, criticals, started_at, ended_at`

// Get returns the report with id.
//
// Postcondition: Returns ErrReportNotFound if no such report exists.
func (r *BattleReportRepository) Get(ctx context.Context, id uuid.UUID) (BattleReport, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reportColumns+` FROM battle_reports WHERE id = $1`, id)
	rep, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return BattleReport{}, ErrReportNotFound
	}
	if err != nil {
		return BattleReport{}, fmt.Errorf("querying battle report %s: %w", id, err)
	}
	return rep, nil
}

// ListRecent returns up to limit reports, most recently ended first.
//
// Precondition: limit > 0.
func (r *BattleReportRepository) ListRecent(ctx context.Context, limit int) ([]BattleReport, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+reportColumns+` FROM battle_reports ORDER BY ended_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing battle reports: %w", err)
	}
	defer rows.Close()

	var out []BattleReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning battle report: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating battle reports: %w", err)
	}
	return out, nil
}

func scanReport(row pgx.Row) (BattleReport, error) {
	var rep BattleReport
	err := row.Scan(
		&rep.ID, &rep.CombatID, &rep.Outcome, &rep.Turns, &rep.Allies, &rep.Enemies, &rep.Actions,
		&rep.BRVDamage, &rep.HPDamage, &rep.Breaks, &rep.Criticals, &rep.StartedAt, &rep.EndedAt,
	)
	return rep, err
}
