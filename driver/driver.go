package driver

import (
	"context"
	"database/sql"

	"school-directory/config"
	"school-directory/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	insertSchool = "INSERT INTO schools (name, address, city, state, contact, image, email_id) VALUES (?, ?, ?, ?, ?, ?, ?)"
	selectAll    = "SELECT id, name, address, city, image FROM schools ORDER BY id DESC"
	selectByID   = "SELECT id, name, address, city, state, contact, image, email_id FROM schools WHERE id = ?"
	updateSchool = "UPDATE schools SET name = ?, address = ?, city = ?, state = ?, contact = ?, email_id = ? WHERE id = ?"
	deleteSchool = "DELETE FROM schools WHERE id = ?"
)

// Gateway runs the school statements against a pooled connection.
// It holds no business logic; affected-row counts are returned as-is.
type Gateway struct {
	db *sql.DB
}

// Open creates the pool for the configured driver and checks that it is reachable.
func Open(ctx context.Context, cfg *config.Config) (*Gateway, error) {
	db, err := sql.Open(cfg.DB.Driver, cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	// database/sql queues callers once MaxOpenConns are in use
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	g := &Gateway{db: db}
	if err := g.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.WithFields(log.Fields{
		"driver":         cfg.DB.Driver,
		"max_open_conns": cfg.DB.MaxOpenConns,
	}).Info("Database connected successfully")
	return g, nil
}

// New wraps an existing pool.
func New(db *sql.DB) *Gateway {
	return &Gateway{db: db}
}

func (g *Gateway) Close() error {
	return g.db.Close()
}

func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping database")
	}
	return nil
}

// Insert stores a new school and returns the id assigned by the database.
func (g *Gateway) Insert(ctx context.Context, s models.School) (int64, error) {
	result, err := g.db.ExecContext(ctx, insertSchool,
		s.Name, s.Address, s.City, s.State, s.Contact, s.Image, s.EmailID)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// List returns every school, most recently added first.
func (g *Gateway) List(ctx context.Context) ([]models.SchoolSummary, error) {
	rows, err := g.db.QueryContext(ctx, selectAll)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schools := []models.SchoolSummary{}
	for rows.Next() {
		var s models.SchoolSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.City, &s.Image); err != nil {
			return nil, err
		}
		schools = append(schools, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schools, nil
}

// Get returns one school. sql.ErrNoRows is returned when the id does not exist.
func (g *Gateway) Get(ctx context.Context, id int64) (models.School, error) {
	var s models.School
	err := g.db.QueryRowContext(ctx, selectByID, id).Scan(
		&s.ID, &s.Name, &s.Address, &s.City, &s.State, &s.Contact, &s.Image, &s.EmailID,
	)
	return s, err
}

// Update replaces the mutable fields of a school. The image column is never touched.
func (g *Gateway) Update(ctx context.Context, s models.School) (int64, error) {
	result, err := g.db.ExecContext(ctx, updateSchool,
		s.Name, s.Address, s.City, s.State, s.Contact, s.EmailID, s.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Delete removes a school. The stored image is left in place.
func (g *Gateway) Delete(ctx context.Context, id int64) (int64, error) {
	result, err := g.db.ExecContext(ctx, deleteSchool, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
