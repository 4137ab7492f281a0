package indexer

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"github.com/project-tktt/salary-pulse/internal/domain"
)

// PostgresIndexer upserts reports into a Postgres table keyed by message id.
type PostgresIndexer struct {
	db        *sql.DB
	tableName string
}

// NewPostgresIndexer opens the connection and ensures the table exists.
func NewPostgresIndexer(connStr, tableName string) (*PostgresIndexer, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	idx := &PostgresIndexer{db: db, tableName: tableName}
	if err := idx.ensureTable(); err != nil {
		return nil, fmt.Errorf("ensure table: %w", err)
	}
	return idx, nil
}

func (i *PostgresIndexer) ensureTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			message_id BIGINT PRIMARY KEY,
			channel TEXT NOT NULL,
			company TEXT,
			position TEXT,
			grade TEXT,
			salary_rub BIGINT,
			bonus_frequency TEXT,
			bonus_rub BIGINT,
			experience_field TEXT,
			experience_company TEXT,
			perks TEXT,
			work_format TEXT,
			work_location TEXT,
			workday_hours_upper INTEGER,
			likes TEXT,
			dislikes TEXT,
			published_at TIMESTAMP WITH TIME ZONE,
			permalink TEXT,
			indexed_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, i.tableName)

	_, err := i.db.Exec(query)
	return err
}

// BulkIndex upserts the full dataset in one transaction. An unextracted
// field is stored as NULL, not as the dataset sentinel text.
func (i *PostgresIndexer) BulkIndex(ctx context.Context, reports []domain.Report) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (
			message_id, channel, company, position, grade,
			salary_rub, bonus_frequency, bonus_rub,
			experience_field, experience_company,
			perks, work_format, work_location, workday_hours_upper,
			likes, dislikes, published_at, permalink, indexed_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10,
			$11, $12, $13, $14,
			$15, $16, $17, $18, NOW()
		)
		ON CONFLICT (message_id) DO UPDATE SET
			channel = EXCLUDED.channel,
			company = EXCLUDED.company,
			position = EXCLUDED.position,
			grade = EXCLUDED.grade,
			salary_rub = EXCLUDED.salary_rub,
			bonus_frequency = EXCLUDED.bonus_frequency,
			bonus_rub = EXCLUDED.bonus_rub,
			experience_field = EXCLUDED.experience_field,
			experience_company = EXCLUDED.experience_company,
			perks = EXCLUDED.perks,
			work_format = EXCLUDED.work_format,
			work_location = EXCLUDED.work_location,
			workday_hours_upper = EXCLUDED.workday_hours_upper,
			likes = EXCLUDED.likes,
			dislikes = EXCLUDED.dislikes,
			published_at = EXCLUDED.published_at,
			permalink = EXCLUDED.permalink,
			indexed_at = NOW()
	`, i.tableName)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range reports {
		_, err := stmt.ExecContext(ctx,
			r.MessageID, r.Channel, r.Company, r.Position, r.Grade,
			r.SalaryRUB, r.BonusFrequency, r.BonusRUB,
			yearsValue(r.ExperienceField), yearsValue(r.ExperienceCompany),
			r.Perks, r.WorkFormat, r.WorkLocation, r.WorkdayHoursUpper,
			r.Likes, r.Dislikes, r.PublishedAt, r.Permalink,
		)
		if err != nil {
			log.Printf("indexer: report %d: %v", r.MessageID, err)
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// yearsValue maps an experience value to its stored text, NULL when unknown.
func yearsValue(y domain.Years) *string {
	if !y.Known {
		return nil
	}
	s := y.String()
	return &s
}

// Close closes the database connection.
func (i *PostgresIndexer) Close() error {
	return i.db.Close()
}
