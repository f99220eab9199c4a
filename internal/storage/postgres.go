package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

const (
	uniqueViolation = "23505"

	// submissionLockClass is the first key of per-challenge advisory locks
	submissionLockClass int32 = 0x636b
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 25
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	}
	poolConfig.MinConns = 5
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Recipes ---

// ListRecipes returns the catalog with ratings averaged from reviews
func (r *PostgresRepository) ListRecipes(ctx context.Context, publicOnly bool) ([]models.Recipe, error) {
	query := `
		SELECT rc.id, rc.title, rc.notes, rc.author, rc.tags, rc.cuisine, rc.difficulty,
		       rc.is_public, rc.likes, rc.created_at, COALESCE(AVG(rv.rating), 0)::float8
		FROM recipes rc
		LEFT JOIN reviews rv ON rv.recipe_id = rc.id
		WHERE ($1 = FALSE OR rc.is_public)
		GROUP BY rc.id
		ORDER BY rc.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, publicOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]models.Recipe, 0)
	for rows.Next() {
		var rc models.Recipe
		var createdAt time.Time
		if err := rows.Scan(
			&rc.ID, &rc.Title, &rc.Notes, &rc.Author, &rc.Tags, &rc.Cuisine, &rc.Difficulty,
			&rc.IsPublic, &rc.Likes, &createdAt, &rc.AverageRating,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		rc.CreatedAt = models.Timestamp(createdAt)
		recipes = append(recipes, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}

	return recipes, nil
}

// GetRecipe retrieves a recipe with its reviews
func (r *PostgresRepository) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	query := `
		SELECT id, title, notes, author, tags, cuisine, difficulty, is_public, likes, created_at
		FROM recipes
		WHERE id = $1
	`

	var rc models.Recipe
	var createdAt time.Time
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rc.ID, &rc.Title, &rc.Notes, &rc.Author, &rc.Tags, &rc.Cuisine, &rc.Difficulty,
		&rc.IsPublic, &rc.Likes, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	rc.CreatedAt = models.Timestamp(createdAt)

	rows, err := r.pool.Query(ctx, `
		SELECT id, recipe_id, author, rating, comment
		FROM reviews
		WHERE recipe_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	defer rows.Close()

	rc.Reviews = make([]models.Review, 0)
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.RecipeID, &rv.Author, &rv.Rating, &rv.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		rc.Reviews = append(rc.Reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	rc.RefreshRating()
	return &rc, nil
}

// CreateRecipe inserts a recipe and fills in its ID and CreatedAt
func (r *PostgresRepository) CreateRecipe(ctx context.Context, rc *models.Recipe) error {
	query := `
		INSERT INTO recipes (title, notes, author, tags, cuisine, difficulty, is_public, likes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	tags := rc.Tags
	if tags == nil {
		tags = []string{}
	}

	var createdAt time.Time
	err := r.pool.QueryRow(ctx, query,
		rc.Title, rc.Notes, rc.Author, tags, rc.Cuisine, rc.Difficulty, rc.IsPublic, rc.Likes,
	).Scan(&rc.ID, &createdAt)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	rc.CreatedAt = models.Timestamp(createdAt)
	return nil
}

// LikeRecipe increments a recipe's like count and returns the new count.
// It returns 0, nil when the recipe does not exist.
func (r *PostgresRepository) LikeRecipe(ctx context.Context, id int64) (int, error) {
	var likes int
	err := r.pool.QueryRow(ctx, `UPDATE recipes SET likes = likes + 1 WHERE id = $1 RETURNING likes`, id).Scan(&likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to like recipe: %w", err)
	}
	return likes, nil
}

// AddReview stores a review
func (r *PostgresRepository) AddReview(ctx context.Context, rv *models.Review) error {
	query := `
		INSERT INTO reviews (recipe_id, author, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if err := r.pool.QueryRow(ctx, query, rv.RecipeID, rv.Author, rv.Rating, rv.Comment).Scan(&rv.ID); err != nil {
		return fmt.Errorf("failed to add review: %w", err)
	}
	return nil
}

// --- Challenges ---

const challengeColumns = `id, title, description, image_url, deadline, points, active, featured, max_submissions, created_at`

func scanChallenge(row pgx.Row) (*models.Challenge, error) {
	var ch models.Challenge
	err := row.Scan(
		&ch.ID, &ch.Title, &ch.Description, &ch.ImageURL, &ch.Deadline,
		&ch.Points, &ch.Active, &ch.Featured, &ch.MaxSubmissions, &ch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListChallenges returns challenges ordered by deadline
func (r *PostgresRepository) ListChallenges(ctx context.Context, activeOnly bool) ([]*models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE ($1 = FALSE OR active) ORDER BY deadline ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	challenges := make([]*models.Challenge, 0)
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, ch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}

	return challenges, nil
}

// GetChallenge retrieves a challenge by ID
func (r *PostgresRepository) GetChallenge(ctx context.Context, id int64) (*models.Challenge, error) {
	ch, err := scanChallenge(r.pool.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return ch, nil
}

// CreateChallenge inserts a challenge and fills in its ID and CreatedAt
func (r *PostgresRepository) CreateChallenge(ctx context.Context, ch *models.Challenge) error {
	query := `
		INSERT INTO challenges (title, description, image_url, deadline, points, active, featured, max_submissions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		ch.Title, ch.Description, ch.ImageURL, ch.Deadline, ch.Points, ch.Active, ch.Featured, ch.MaxSubmissions,
	).Scan(&ch.ID, &ch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

// UpdateChallenge updates a challenge's mutable fields
func (r *PostgresRepository) UpdateChallenge(ctx context.Context, ch *models.Challenge) error {
	query := `
		UPDATE challenges
		SET title = $2, description = $3, image_url = $4, deadline = $5, points = $6,
		    active = $7, featured = $8, max_submissions = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		ch.ID, ch.Title, ch.Description, ch.ImageURL, ch.Deadline, ch.Points, ch.Active, ch.Featured, ch.MaxSubmissions,
	)
	if err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("challenge not found: %d", ch.ID)
	}
	return nil
}

// --- Submissions ---

// ListSubmissions returns a challenge's submissions joined with their
// recipe's title and current likes
func (r *PostgresRepository) ListSubmissions(ctx context.Context, challengeID int64) ([]models.Submission, error) {
	query := `
		SELECT s.id, s.challenge_id, s.recipe_id, rc.title, s.author, rc.likes, s.created_at
		FROM submissions s
		JOIN recipes rc ON rc.id = s.recipe_id
		WHERE s.challenge_id = $1
		ORDER BY s.id
	`

	rows, err := r.pool.Query(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]models.Submission, 0)
	for rows.Next() {
		var s models.Submission
		var id int64
		var createdAt time.Time
		if err := rows.Scan(&id, &s.ChallengeID, &s.RecipeID, &s.Title, &s.Author, &s.Likes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		s.ID = models.SubmissionID(id)
		s.CreatedAt = models.Timestamp(createdAt)
		subs = append(subs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}

	return subs, nil
}

// CreateSubmission inserts a submission and fills in its ID and CreatedAt
func (r *PostgresRepository) CreateSubmission(ctx context.Context, s *models.Submission) error {
	query := `
		INSERT INTO submissions (challenge_id, recipe_id, author)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	var id int64
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query, s.ChallengeID, s.RecipeID, s.Author).Scan(&id, &createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateSubmission
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}

	s.ID = models.SubmissionID(id)
	s.CreatedAt = models.Timestamp(createdAt)
	return nil
}

// LockChallenge holds a session advisory lock on a pooled connection, which
// serializes submitters to one challenge across every replica. Challenge
// IDs share the lock space modulo 2^32.
func (r *PostgresRepository) LockChallenge(ctx context.Context, challengeID int64) (func(), error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	key := int32(challengeID)
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1, $2)`, submissionLockClass, key); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to lock challenge %d: %w", challengeID, err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock($1, $2)`, submissionLockClass, key); err != nil {
			slog.Warn("failed to unlock challenge, dropping connection", "challenge_id", challengeID, "error", err)
			// closing the session releases its locks
			conn.Conn().Close(ctx)
		}
		conn.Release()
	}, nil
}

// DeleteSubmissions removes every submission of a challenge
func (r *PostgresRepository) DeleteSubmissions(ctx context.Context, challengeID int64) (int, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM submissions WHERE challenge_id = $1`, challengeID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete submissions: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// --- Standings ---

// ReplaceStandings swaps the whole standings table in one transaction
func (r *PostgresRepository) ReplaceStandings(ctx context.Context, standings []models.StandingEntry) error {
	rows := make([][]any, len(standings))
	for i, s := range standings {
		rows[i] = []any{s.Author, s.Rank, s.TotalPoints, s.EarliestSubmissionID}
	}

	return r.replaceTable(ctx, "standings",
		[]string{"author", "rank", "total_points", "earliest_submission_id"}, rows)
}

// ListStandings returns the standings in rank order
func (r *PostgresRepository) ListStandings(ctx context.Context) ([]models.StandingEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rank, author, total_points, earliest_submission_id
		FROM standings
		ORDER BY rank ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}
	defer rows.Close()

	standings := make([]models.StandingEntry, 0)
	for rows.Next() {
		var s models.StandingEntry
		var earliest sql.NullInt64
		if err := rows.Scan(&s.Rank, &s.Author, &s.TotalPoints, &earliest); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		if earliest.Valid {
			s.EarliestSubmissionID = models.SubmissionID(earliest.Int64)
		}
		standings = append(standings, s)
	}

	return standings, rows.Err()
}

// ReplaceFeaturedWinners swaps the hall of fame for a new settlement
func (r *PostgresRepository) ReplaceFeaturedWinners(ctx context.Context, winners []models.FeaturedWinner) error {
	rows := make([][]any, len(winners))
	for i, w := range winners {
		settlementID, err := uuid.Parse(w.SettlementID)
		if err != nil {
			return fmt.Errorf("invalid settlement id %q: %w", w.SettlementID, err)
		}
		rows[i] = []any{settlementID, w.Author, w.TotalPoints, w.AwardedAt}
	}

	return r.replaceTable(ctx, "featured_winners",
		[]string{"settlement_id", "author", "total_points", "awarded_at"}, rows)
}

// ListFeaturedWinners returns the winners of the last settled featured challenge
func (r *PostgresRepository) ListFeaturedWinners(ctx context.Context) ([]models.FeaturedWinner, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT settlement_id::text, author, total_points, awarded_at
		FROM featured_winners
		ORDER BY total_points DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured winners: %w", err)
	}
	defer rows.Close()

	winners := make([]models.FeaturedWinner, 0)
	for rows.Next() {
		var w models.FeaturedWinner
		if err := rows.Scan(&w.SettlementID, &w.Author, &w.TotalPoints, &w.AwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan featured winner: %w", err)
		}
		winners = append(winners, w)
	}

	return winners, rows.Err()
}

// AwardBadge grants a badge once; granting it again is a no-op
func (r *PostgresRepository) AwardBadge(ctx context.Context, author, badge string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO badges (author, badge) VALUES ($1, $2)
		ON CONFLICT (author, badge) DO NOTHING
	`, author, badge)
	if err != nil {
		return fmt.Errorf("failed to award badge: %w", err)
	}
	return nil
}

// ListBadges returns an author's badges in the order they were earned
func (r *PostgresRepository) ListBadges(ctx context.Context, author string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT badge FROM badges WHERE author = $1 ORDER BY awarded_at, badge`, author)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	badges := make([]string, 0)
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// replaceTable truncates table and bulk loads rows with COPY in one transaction
func (r *PostgresRepository) replaceTable(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+pgx.Identifier{table}.Sanitize()); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("failed to copy into %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}

// --- API Clients ---

// CreateClient stores a new API client
func (r *PostgresRepository) CreateClient(ctx context.Context, c *models.ApiClient) error {
	permissionsJSON, err := json.Marshal(c.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}
	metadata := c.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO api_clients (name, api_key, is_active, permissions, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, query, c.Name, c.ApiKey, c.IsActive, permissionsJSON, metadataJSON).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("failed to create api client: %w", err)
	}
	return nil
}

// CountClients returns the number of registered API clients
func (r *PostgresRepository) CountClients(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM api_clients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count api clients: %w", err)
	}
	return n, nil
}

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var lastUsedAt sql.NullTime
	var permissionsJSON, metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}
	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}
	return nil
}
