package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/zitadel/authserver/pkg/oidc"
	"github.com/zitadel/authserver/pkg/op"
)

//go:embed migrations
var migrations embed.FS

// SQLDriver selects the database/sql driver and the migrations.
type SQLDriver string

const (
	DriverPostgres SQLDriver = "postgres"
	DriverSQLite   SQLDriver = "sqlite"
)

var _ op.Storage = (*SQL)(nil)

// SQL implements op.Storage on PostgreSQL or SQLite. Grant state
// transitions are conditional updates, so the database decides
// which of two concurrent redemptions wins.
type SQL struct {
	*Directory
	db     *sql.DB
	driver SQLDriver
}

// OpenSQL connects to the database and applies the migrations.
func OpenSQL(ctx context.Context, driver SQLDriver, dsn string, dir *Directory) (*SQL, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}
	if driver == DriverSQLite {
		// every connection to an in-memory database is a database of its own
		db.SetMaxOpenConns(1)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if err = applyMigrations(db, driver); err != nil {
		db.Close()
		return nil, err
	}
	return &SQL{Directory: dir, db: db, driver: driver}, nil
}

func applyMigrations(db *sql.DB, driver SQLDriver) error {
	source, err := iofs.New(migrations, "migrations/"+string(driver))
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var instance database.Driver
	switch driver {
	case DriverPostgres:
		instance, err = postgres.WithInstance(db, &postgres.Config{})
	case DriverSQLite:
		instance, err = sqlite.WithInstance(db, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("creating migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, string(driver), instance)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("checking migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state (version %d)", version)
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

// rebind replaces the ? placeholders with $n for PostgreSQL.
func (s *SQL) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQL) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQL) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func unixMilli(t time.Time) int64 {
	return t.UnixMilli()
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, op.ErrNotFound)
	}
	return err
}

func (s *SQL) GetClientByClientID(ctx context.Context, clientID string) (op.Client, error) {
	if client, ok := s.staticClient(clientID); ok {
		return client, nil
	}
	info, err := s.ClientInformation(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.registeredClient(info)
}

func (s *SQL) RegisterClient(ctx context.Context, info *oidc.ClientInformationResponse) error {
	if _, ok := s.staticClient(info.ClientID); ok {
		return fmt.Errorf("client %s already exists", info.ClientID)
	}
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO clients (client_id, information) VALUES (?, ?)`, info.ClientID, string(data))
	return err
}

func (s *SQL) ClientInformation(ctx context.Context, clientID string) (*oidc.ClientInformationResponse, error) {
	var data string
	err := s.queryRow(ctx, `SELECT information FROM clients WHERE client_id = ?`, clientID).Scan(&data)
	if err != nil {
		return nil, notFound(err, "client "+clientID)
	}
	info := new(oidc.ClientInformationResponse)
	if err = json.Unmarshal([]byte(data), info); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *SQL) SaveAuthRequest(ctx context.Context, authReq *op.AuthRequest) error {
	data, err := json.Marshal(authReq)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO auth_requests (id, expires_at, data) VALUES (?, ?, ?)`,
		authReq.ID, unixMilli(authReq.ExpiresAt), string(data))
	return err
}

func (s *SQL) AuthRequestByID(ctx context.Context, id string) (*op.AuthRequest, error) {
	var data string
	err := s.queryRow(ctx, `SELECT data FROM auth_requests WHERE id = ?`, id).Scan(&data)
	if err != nil {
		return nil, notFound(err, "auth request "+id)
	}
	authReq := new(op.AuthRequest)
	if err = json.Unmarshal([]byte(data), authReq); err != nil {
		return nil, err
	}
	return authReq, nil
}

func (s *SQL) UpdateAuthRequest(ctx context.Context, authReq *op.AuthRequest) error {
	data, err := json.Marshal(authReq)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx, `UPDATE auth_requests SET expires_at = ?, data = ? WHERE id = ?`,
		unixMilli(authReq.ExpiresAt), string(data), authReq.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("auth request %s: %w", authReq.ID, op.ErrNotFound)
	}
	return nil
}

func (s *SQL) DeleteAuthRequest(ctx context.Context, id string) error {
	_, err := s.exec(ctx, `DELETE FROM auth_requests WHERE id = ?`, id)
	return err
}

func (s *SQL) DeleteExpiredAuthRequests(ctx context.Context, before time.Time) (int, error) {
	res, err := s.exec(ctx, `DELETE FROM auth_requests WHERE expires_at < ?`, unixMilli(before))
	return rowsAffected(res, err)
}

func rowsAffected(res sql.Result, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQL) SaveGrant(ctx context.Context, grant *op.Grant) error {
	data, err := json.Marshal(grant)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO grants (code, id, state, expires_at, data) VALUES (?, ?, ?, ?, ?)`,
		grant.Code, grant.ID, grant.State.String(), unixMilli(grant.ExpiresAt), string(data))
	return err
}

const selectGrant = `SELECT state, data FROM grants`

// scanGrant decodes the grant, the state column is authoritative.
func scanGrant(row interface{ Scan(...any) error }) (*op.Grant, error) {
	var state, data string
	if err := row.Scan(&state, &data); err != nil {
		return nil, err
	}
	grant := new(op.Grant)
	if err := json.Unmarshal([]byte(data), grant); err != nil {
		return nil, err
	}
	if err := grant.State.UnmarshalText([]byte(state)); err != nil {
		return nil, err
	}
	return grant, nil
}

func (s *SQL) GrantByCode(ctx context.Context, code string) (*op.Grant, error) {
	grant, err := scanGrant(s.queryRow(ctx, selectGrant+` WHERE code = ?`, code))
	if err != nil {
		return nil, notFound(err, "grant")
	}
	return grant, nil
}

func (s *SQL) UpdateGrantState(ctx context.Context, code string, from, to op.GrantState) (bool, error) {
	n, err := rowsAffected(s.exec(ctx, `UPDATE grants SET state = ? WHERE code = ? AND state = ?`,
		to.String(), code, from.String()))
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	var exists int
	err = s.queryRow(ctx, `SELECT 1 FROM grants WHERE code = ?`, code).Scan(&exists)
	if err != nil {
		return false, notFound(err, "grant")
	}
	return false, nil
}

func (s *SQL) ExpiredGrants(ctx context.Context, before time.Time) ([]*op.Grant, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(selectGrant+` WHERE expires_at < ?`), unixMilli(before))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []*op.Grant
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

func (s *SQL) DeleteGrant(ctx context.Context, code string) error {
	n, err := rowsAffected(s.exec(ctx, `DELETE FROM grants WHERE code = ?`, code))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("grant: %w", op.ErrNotFound)
	}
	return nil
}

func (s *SQL) SaveToken(ctx context.Context, token *op.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO tokens (id, grant_id, revoked, expires_at, data) VALUES (?, ?, ?, ?, ?)`,
		token.ID, token.GrantID, token.Revoked, unixMilli(token.ExpiresAt), string(data))
	return err
}

func (s *SQL) TokenByID(ctx context.Context, id string) (*op.Token, error) {
	var (
		revoked bool
		data    string
	)
	err := s.queryRow(ctx, `SELECT revoked, data FROM tokens WHERE id = ?`, id).Scan(&revoked, &data)
	if err != nil {
		return nil, notFound(err, "token "+id)
	}
	token := new(op.Token)
	if err = json.Unmarshal([]byte(data), token); err != nil {
		return nil, err
	}
	token.Revoked = revoked
	return token, nil
}

func (s *SQL) RevokeToken(ctx context.Context, id string) (bool, error) {
	n, err := rowsAffected(s.exec(ctx, `UPDATE tokens SET revoked = ? WHERE id = ? AND revoked = ?`, true, id, false))
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	var revoked bool
	if err = s.queryRow(ctx, `SELECT revoked FROM tokens WHERE id = ?`, id).Scan(&revoked); err != nil {
		return false, notFound(err, "token "+id)
	}
	return false, nil
}

func (s *SQL) RevokeTokensByGrant(ctx context.Context, grantID string) (int, error) {
	if grantID == "" {
		return 0, nil
	}
	return rowsAffected(s.exec(ctx, `UPDATE tokens SET revoked = ? WHERE grant_id = ? AND revoked = ?`, true, grantID, false))
}

func (s *SQL) HasActiveTokens(ctx context.Context, grantID string, at time.Time) (bool, error) {
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM tokens WHERE grant_id = ? AND revoked = ? AND expires_at > ?`,
		grantID, false, unixMilli(at)).Scan(&n)
	return n > 0, err
}

func (s *SQL) DeleteExpiredTokens(ctx context.Context, before time.Time) (int, error) {
	return rowsAffected(s.exec(ctx, `DELETE FROM tokens WHERE expires_at < ?`, unixMilli(before)))
}

func (s *SQL) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
