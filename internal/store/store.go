// Package store reads GRC collections and auth users from Postgres.
package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/grcdesk/grcdesk/internal/grc"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Queries runs the application's SQL against a DBTX.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func listAll[T any](ctx context.Context, db DBTX, sql string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

const listDepartments = `SELECT id, name, code, created_at FROM departments ORDER BY name, id`

func (q *Queries) ListDepartments(ctx context.Context) ([]grc.Department, error) {
	return listAll[grc.Department](ctx, q.db, listDepartments)
}

const listGovernanceItems = `SELECT g.id, g.title, g.description, g.status, g.type,
       g.department_id, d.name AS department_name, g.progress, g.due_date,
       g.created_at, g.updated_at
FROM governance_items g
LEFT JOIN departments d ON d.id = g.department_id`

// ListGovernanceItems returns governance items matching filter, newest first.
func (q *Queries) ListGovernanceItems(ctx context.Context, filter grc.GovernanceFilter) ([]grc.GovernanceItem, error) {
	sql, args := governanceQuery(filter)
	return listAll[grc.GovernanceItem](ctx, q.db, sql, args...)
}

func governanceQuery(filter grc.GovernanceFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause, value string) {
		args = append(args, value)
		where = append(where, strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if v := strings.TrimSpace(filter.Status); v != "" {
		add("upper(g.status) = upper(?)", v)
	}
	if v := strings.TrimSpace(filter.Type); v != "" {
		add("upper(g.type) = upper(?)", v)
	}
	if v := strings.TrimSpace(filter.DepartmentID); v != "" {
		add("g.department_id = ?", v)
	}

	sql := listGovernanceItems
	if len(where) > 0 {
		sql += "\nWHERE " + strings.Join(where, " AND ")
	}
	sql += "\nORDER BY g.created_at DESC, g.id"
	return sql, args
}

const listAudits = `SELECT id, code, title, status, type, start_date, end_date, created_at
FROM audits ORDER BY created_at DESC, id`

func (q *Queries) ListAudits(ctx context.Context) ([]grc.Audit, error) {
	return listAll[grc.Audit](ctx, q.db, listAudits)
}

const listAuditFindings = `SELECT id, audit_id, title, severity, status, category, due_date, created_at
FROM audit_findings ORDER BY created_at DESC, id`

func (q *Queries) ListAuditFindings(ctx context.Context) ([]grc.AuditFinding, error) {
	return listAll[grc.AuditFinding](ctx, q.db, listAuditFindings)
}

const listAuditSchedules = `SELECT id, audit_id, title, scheduled_date, status, created_at
FROM audit_schedules ORDER BY scheduled_date, id`

func (q *Queries) ListAuditSchedules(ctx context.Context) ([]grc.AuditSchedule, error) {
	return listAll[grc.AuditSchedule](ctx, q.db, listAuditSchedules)
}

const listComplianceControls = `SELECT id, code, title, framework, status, created_at
FROM compliance_controls ORDER BY code, id`

func (q *Queries) ListComplianceControls(ctx context.Context) ([]grc.ComplianceControl, error) {
	return listAll[grc.ComplianceControl](ctx, q.db, listComplianceControls)
}

const listCompliancePolicies = `SELECT id, title, version, status, created_at
FROM compliance_policies ORDER BY title, id`

func (q *Queries) ListCompliancePolicies(ctx context.Context) ([]grc.CompliancePolicy, error) {
	return listAll[grc.CompliancePolicy](ctx, q.db, listCompliancePolicies)
}

const listRisks = `SELECT id, title, category, impact, likelihood, status, created_at
FROM risks ORDER BY created_at DESC, id`

func (q *Queries) ListRisks(ctx context.Context) ([]grc.Risk, error) {
	return listAll[grc.Risk](ctx, q.db, listRisks)
}
