// Package sqlstore persists users, word lists, games and guesses in Postgres
// or SQLite through sqlx. Queries are written with ? placeholders and rebound
// for the active driver.
package sqlstore

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the primary database. SQLite is limited to a single
// connection so that in-memory databases survive and writers never contend.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Cluster is a primary plus zero or more read replicas. Reads rotate across
// the replicas; with none configured every read goes to the primary.
type Cluster struct {
	Primary  *sqlx.DB
	Replicas []*sqlx.DB
	next     *atomic.Uint64
}

func NewCluster(primary *sqlx.DB, replicas ...*sqlx.DB) *Cluster {
	return &Cluster{
		Primary:  primary,
		Replicas: replicas,
		next:     &atomic.Uint64{},
	}
}

// OpenCluster opens the primary and each replica DSN with the same driver
func OpenCluster(driver, primaryDSN string, replicaDSNs []string) (*Cluster, error) {
	primary, err := Open(driver, primaryDSN)
	if err != nil {
		return nil, err
	}

	replicas := make([]*sqlx.DB, 0, len(replicaDSNs))
	for i, dsn := range replicaDSNs {
		replica, err := Open(driver, dsn)
		if err != nil {
			for _, r := range replicas {
				r.Close()
			}
			primary.Close()
			return nil, fmt.Errorf("replica %d: %w", i, err)
		}
		replicas = append(replicas, replica)
	}
	return NewCluster(primary, replicas...), nil
}

// Reader picks the next replica round-robin
func (c *Cluster) Reader() *sqlx.DB {
	if len(c.Replicas) == 0 {
		return c.Primary
	}
	i := c.next.Add(1) - 1
	return c.Replicas[i%uint64(len(c.Replicas))]
}

func (c *Cluster) Close() error {
	var errs []error
	for _, r := range c.Replicas {
		errs = append(errs, r.Close())
	}
	errs = append(errs, c.Primary.Close())
	return errors.Join(errs...)
}
