package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newslens/internal/config"
	"newslens/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStorage struct {
	db     *sql.DB
	config *config.Config
}

func NewSQLiteStorage(dataDir string, cfg *config.Config) (*SQLiteStorage, error) {
	// Ensure data directory exists with secure permissions (0750)
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "newslens.db")
	log.Printf("Initializing database at: %s", dbPath)

	// Check if database exists and validate schema
	needsRecreation := false
	if os.Getenv("FORCE_DB_RECREATE") == "true" {
		log.Printf("Force database recreation requested via environment variable")
		needsRecreation = true
	} else if _, err := os.Stat(dbPath); err == nil {
		if !validateSchema(dbPath) {
			log.Printf("Database schema validation failed, will recreate database")
			needsRecreation = true
		}
	}

	if needsRecreation {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove existing database: %v", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLiteStorage{
		db:     db,
		config: cfg,
	}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		origin_link TEXT UNIQUE NOT NULL,
		source TEXT,
		category TEXT,
		language TEXT DEFAULT 'en',
		publish_date DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analysis_records (
		article_id INTEGER PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'PENDING',
		bias_label TEXT,
		bias_score REAL NOT NULL DEFAULT 0,
		cluster_id INTEGER,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS analysis_keywords (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		article_id INTEGER NOT NULL,
		keyword TEXT NOT NULL,
		FOREIGN KEY (article_id) REFERENCES analysis_records(article_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS embedding_vectors (
		article_id INTEGER PRIMARY KEY,
		vector BLOB NOT NULL,
		dim INTEGER NOT NULL,
		FOREIGN KEY (article_id) REFERENCES analysis_records(article_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS user_read_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		article_id INTEGER NOT NULL,
		read_at DATETIME NOT NULL,
		FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS user_category_preferences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		category TEXT NOT NULL,
		UNIQUE(user_id, category)
	);`

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at DESC);",
		"CREATE INDEX IF NOT EXISTS idx_articles_publish_date ON articles(publish_date DESC);",
		"CREATE INDEX IF NOT EXISTS idx_records_status ON analysis_records(status);",
		"CREATE INDEX IF NOT EXISTS idx_records_cluster ON analysis_records(cluster_id);",
		"CREATE INDEX IF NOT EXISTS idx_keywords_article ON analysis_keywords(article_id);",
		"CREATE INDEX IF NOT EXISTS idx_keywords_keyword ON analysis_keywords(keyword);",
		"CREATE INDEX IF NOT EXISTS idx_read_history_user ON user_read_history(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_preferences_user ON user_category_preferences(user_id);",
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %v", err)
	}

	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %v", err)
		}
	}

	return nil
}

// validateSchema checks if the database has the required tables
func validateSchema(dbPath string) bool {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		log.Printf("Failed to open database for schema validation: %v", err)
		return false
	}
	defer db.Close()

	requiredTables := []string{
		"articles", "analysis_records", "analysis_keywords",
		"embedding_vectors", "user_read_history", "user_category_preferences",
	}
	for _, table := range requiredTables {
		var count int
		query := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
		if err := db.QueryRow(query, table).Scan(&count); err != nil || count == 0 {
			log.Printf("Missing required table: %s", table)
			return false
		}
	}

	return true
}

func (s *SQLiteStorage) SaveArticle(article *models.Article) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %v", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				log.Printf("Warning: failed to rollback transaction: %v", err)
			}
		}
	}()

	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}

	res, err := tx.Exec(`
		INSERT INTO articles (title, description, origin_link, source, category, language, publish_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		article.Title, article.Description, article.OriginLink, article.Source,
		article.Category, article.Language, article.PublishDate, article.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert article: %v", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get article id: %v", err)
	}

	// Every article starts with a PENDING analysis record
	if _, err := tx.Exec(`
		INSERT INTO analysis_records (article_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		id, models.StatusPending, now, now); err != nil {
		return 0, fmt.Errorf("failed to insert analysis record: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %v", err)
	}
	committed = true

	article.ID = id
	return id, nil
}

func (s *SQLiteStorage) GetArticle(id int64) (*models.Article, error) {
	var a models.Article
	err := s.db.QueryRow(`
		SELECT id, title, description, origin_link, source, category, language, publish_date, created_at
		FROM articles WHERE id = ?`, id).Scan(
		&a.ID, &a.Title, &a.Description, &a.OriginLink, &a.Source,
		&a.Category, &a.Language, &a.PublishDate, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load article %d: %v", id, err)
	}
	return &a, nil
}

func (s *SQLiteStorage) ArticleExists(originLink string) (bool, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM articles WHERE origin_link = ?", originLink).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check article existence: %v", err)
	}
	return count > 0, nil
}

func (s *SQLiteStorage) GetAnalysisRecord(articleID int64) (*models.AnalysisRecord, error) {
	var r models.AnalysisRecord
	var label sql.NullString
	var cluster sql.NullInt64
	err := s.db.QueryRow(`
		SELECT article_id, status, bias_label, bias_score, cluster_id, created_at, updated_at
		FROM analysis_records WHERE article_id = ?`, articleID).Scan(
		&r.ArticleID, &r.Status, &label, &r.BiasScore, &cluster, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis record %d: %v", articleID, err)
	}
	if label.Valid {
		r.BiasLabel = models.BiasLabel(label.String)
	}
	if cluster.Valid {
		r.ClusterID = &cluster.Int64
	}
	return &r, nil
}

func (s *SQLiteStorage) MarkProcessing(articleID int64) error {
	res, err := s.db.Exec(`
		UPDATE analysis_records SET status = ?, updated_at = ? WHERE article_id = ?`,
		models.StatusProcessing, time.Now().UTC(), articleID)
	if err != nil {
		return &models.PersistenceError{Op: "mark processing", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SaveAnalysisResult replaces the keyword set, upserts the embedding and
// writes the bias verdict plus final status in one transaction.
func (s *SQLiteStorage) SaveAnalysisResult(articleID int64, result *models.AnalysisResult) error {
	if len(result.Vector) != s.config.EmbeddingDim {
		return models.NewValidationError("embedding has %d dimensions, want %d", len(result.Vector), s.config.EmbeddingDim)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &models.PersistenceError{Op: "begin analysis result", Err: err}
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				log.Printf("Warning: failed to rollback transaction: %v", err)
			}
		}
	}()

	// Keywords are fully replaced, never partially updated
	if _, err := tx.Exec("DELETE FROM analysis_keywords WHERE article_id = ?", articleID); err != nil {
		return &models.PersistenceError{Op: "delete keywords", Err: err}
	}
	for _, kw := range result.Keywords {
		if _, err := tx.Exec("INSERT INTO analysis_keywords (article_id, keyword) VALUES (?, ?)", articleID, kw); err != nil {
			return &models.PersistenceError{Op: "insert keyword", Err: err}
		}
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO embedding_vectors (article_id, vector, dim) VALUES (?, ?, ?)`,
		articleID, encodeVector(result.Vector), len(result.Vector)); err != nil {
		return &models.PersistenceError{Op: "upsert embedding", Err: err}
	}

	res, err := tx.Exec(`
		UPDATE analysis_records SET status = ?, bias_label = ?, bias_score = ?, updated_at = ?
		WHERE article_id = ?`,
		result.Status, result.BiasLabel, result.BiasScore, time.Now().UTC(), articleID)
	if err != nil {
		return &models.PersistenceError{Op: "update record", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return &models.PersistenceError{Op: "commit analysis result", Err: err}
	}
	committed = true

	return nil
}

func (s *SQLiteStorage) MarkFailed(articleID int64) error {
	_, err := s.db.Exec(`
		UPDATE analysis_records SET status = ?, updated_at = ? WHERE article_id = ?`,
		models.StatusFailed, time.Now().UTC(), articleID)
	if err != nil {
		return &models.PersistenceError{Op: "mark failed", Err: err}
	}
	return nil
}

// SetClusterID assigns a cluster id once; a record that already carries one
// is left untouched.
func (s *SQLiteStorage) SetClusterID(articleID, clusterID int64) error {
	_, err := s.db.Exec(`
		UPDATE analysis_records SET cluster_id = ?, updated_at = ?
		WHERE article_id = ? AND cluster_id IS NULL`,
		clusterID, time.Now().UTC(), articleID)
	if err != nil {
		return &models.PersistenceError{Op: "set cluster id", Err: err}
	}
	return nil
}

func (s *SQLiteStorage) GetEmbedding(articleID int64) ([]float32, error) {
	var blob []byte
	var dim int
	err := s.db.QueryRow("SELECT vector, dim FROM embedding_vectors WHERE article_id = ?", articleID).Scan(&blob, &dim)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding %d: %v", articleID, err)
	}
	return decodeVector(blob, dim)
}

// ListCompletedEmbeddings returns the vectors of all COMPLETED records, in
// article id order, for the startup index rebuild. FILTERED vectors stay out
// of the similarity index.
func (s *SQLiteStorage) ListCompletedEmbeddings() ([]models.StoredVector, error) {
	rows, err := s.db.Query(`
		SELECT v.article_id, v.vector, v.dim
		FROM embedding_vectors v
		JOIN analysis_records r ON r.article_id = v.article_id
		WHERE r.status = ?
		ORDER BY v.article_id`, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed embeddings: %v", err)
	}
	defer rows.Close()

	var vectors []models.StoredVector
	for rows.Next() {
		var sv models.StoredVector
		var blob []byte
		var dim int
		if err := rows.Scan(&sv.ArticleID, &blob, &dim); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %v", err)
		}
		vec, err := decodeVector(blob, dim)
		if err != nil {
			log.Printf("Warning: skipping corrupt embedding for article %d: %v", sv.ArticleID, err)
			continue
		}
		sv.Vector = vec
		vectors = append(vectors, sv)
	}
	return vectors, rows.Err()
}

// ListClusterCandidates returns recent FILTERED articles that already carry a
// cluster id, excluding the article being assigned.
func (s *SQLiteStorage) ListClusterCandidates(excludeID int64, since time.Time) ([]models.ClusterCandidate, error) {
	rows, err := s.db.Query(`
		SELECT r.article_id, r.cluster_id, v.vector, v.dim
		FROM analysis_records r
		JOIN embedding_vectors v ON v.article_id = r.article_id
		JOIN articles a ON a.id = r.article_id
		WHERE r.status = ?
		  AND r.cluster_id IS NOT NULL
		  AND r.article_id != ?
		  AND a.created_at >= ?`,
		models.StatusFiltered, excludeID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list cluster candidates: %v", err)
	}
	defer rows.Close()

	var candidates []models.ClusterCandidate
	for rows.Next() {
		var c models.ClusterCandidate
		var blob []byte
		var dim int
		if err := rows.Scan(&c.ArticleID, &c.ClusterID, &blob, &dim); err != nil {
			return nil, fmt.Errorf("failed to scan cluster candidate: %v", err)
		}
		vec, err := decodeVector(blob, dim)
		if err != nil {
			log.Printf("Warning: skipping corrupt embedding for article %d: %v", c.ArticleID, err)
			continue
		}
		c.Vector = vec
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (s *SQLiteStorage) RecordRead(userID, articleID int64) error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM articles WHERE id = ?", articleID).Scan(&count); err != nil {
		return fmt.Errorf("failed to check article: %v", err)
	}
	if count == 0 {
		return models.ErrNotFound
	}

	_, err := s.db.Exec(`
		INSERT INTO user_read_history (user_id, article_id, read_at) VALUES (?, ?, ?)`,
		userID, articleID, time.Now().UTC())
	if err != nil {
		return &models.PersistenceError{Op: "record read", Err: err}
	}
	return nil
}

func (s *SQLiteStorage) CountReadHistory(userID int64) (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM user_read_history WHERE user_id = ?", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count read history: %v", err)
	}
	return count, nil
}

func (s *SQLiteStorage) ListReadArticleIDs(userID int64) ([]int64, error) {
	rows, err := s.db.Query("SELECT DISTINCT article_id FROM user_read_history WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list read articles: %v", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan read article id: %v", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStorage) ListReadEmbeddings(userID int64) ([]models.StoredVector, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT v.article_id, v.vector, v.dim
		FROM user_read_history h
		JOIN embedding_vectors v ON v.article_id = h.article_id
		WHERE h.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list read embeddings: %v", err)
	}
	defer rows.Close()

	var vectors []models.StoredVector
	for rows.Next() {
		var sv models.StoredVector
		var blob []byte
		var dim int
		if err := rows.Scan(&sv.ArticleID, &blob, &dim); err != nil {
			return nil, fmt.Errorf("failed to scan read embedding: %v", err)
		}
		vec, err := decodeVector(blob, dim)
		if err != nil {
			log.Printf("Warning: skipping corrupt embedding for article %d: %v", sv.ArticleID, err)
			continue
		}
		sv.Vector = vec
		vectors = append(vectors, sv)
	}
	return vectors, rows.Err()
}

func (s *SQLiteStorage) SetPreferredCategories(userID int64, categories []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &models.PersistenceError{Op: "begin preferences", Err: err}
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				log.Printf("Warning: failed to rollback transaction: %v", err)
			}
		}
	}()

	if _, err := tx.Exec("DELETE FROM user_category_preferences WHERE user_id = ?", userID); err != nil {
		return &models.PersistenceError{Op: "delete preferences", Err: err}
	}
	for _, category := range categories {
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO user_category_preferences (user_id, category) VALUES (?, ?)`,
			userID, category); err != nil {
			return &models.PersistenceError{Op: "insert preference", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &models.PersistenceError{Op: "commit preferences", Err: err}
	}
	committed = true
	return nil
}

func (s *SQLiteStorage) GetPreferredCategories(userID int64) ([]string, error) {
	rows, err := s.db.Query("SELECT category FROM user_category_preferences WHERE user_id = ? ORDER BY category", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %v", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %v", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListCompletedByCategories returns fresh COMPLETED articles whose keyword set
// intersects the given categories, ranked by match count then recency.
// excludeUserID > 0 drops articles that user has already read.
func (s *SQLiteStorage) ListCompletedByCategories(categories []string, excludeUserID int64, since time.Time, limit int) ([]models.CategoryMatch, error) {
	if len(categories) == 0 {
		return nil, nil
	}

	args := make([]interface{}, 0, len(categories)+4)
	args = append(args, models.StatusCompleted)
	for _, c := range categories {
		args = append(args, c)
	}
	args = append(args, since)

	query := `
		SELECT a.id, a.title, a.description, a.origin_link, a.source, a.category, a.language,
		       a.publish_date, a.created_at, COUNT(DISTINCT k.keyword) AS matches
		FROM articles a
		JOIN analysis_records r ON r.article_id = a.id
		JOIN analysis_keywords k ON k.article_id = a.id
		WHERE r.status = ?
		  AND (r.bias_label IS NULL OR r.bias_label != 'BIASED')
		  AND k.keyword IN (` + placeholders(len(categories)) + `)
		  AND a.created_at >= ?`

	if excludeUserID > 0 {
		query += " AND a.id NOT IN (SELECT article_id FROM user_read_history WHERE user_id = ?)"
		args = append(args, excludeUserID)
	}

	query += `
		GROUP BY a.id
		ORDER BY matches DESC, a.publish_date DESC
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles by categories: %v", err)
	}
	defer rows.Close()

	var results []models.CategoryMatch
	for rows.Next() {
		var m models.CategoryMatch
		if err := rows.Scan(&m.Article.ID, &m.Article.Title, &m.Article.Description,
			&m.Article.OriginLink, &m.Article.Source, &m.Article.Category, &m.Article.Language,
			&m.Article.PublishDate, &m.Article.CreatedAt, &m.MatchCount); err != nil {
			return nil, fmt.Errorf("failed to scan category match: %v", err)
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// FilterFresh reports which of the given article ids were created at or after
// the cutoff.
func (s *SQLiteStorage) FilterFresh(ids []int64, since time.Time) (map[int64]bool, error) {
	fresh := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return fresh, nil
	}

	args := make([]interface{}, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, since)

	rows, err := s.db.Query(
		"SELECT id FROM articles WHERE id IN ("+placeholders(len(ids))+") AND created_at >= ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter fresh articles: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan fresh article id: %v", err)
		}
		fresh[id] = true
	}
	return fresh, rows.Err()
}

// FilterRecommendable returns the subset of the given articles that are fresh
// and not labeled BIASED, keyed by article id.
func (s *SQLiteStorage) FilterRecommendable(ids []int64, since time.Time) (map[int64]models.Article, error) {
	recommendable := make(map[int64]models.Article, len(ids))
	if len(ids) == 0 {
		return recommendable, nil
	}

	args := make([]interface{}, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, since)

	rows, err := s.db.Query(`
		SELECT a.id, a.title, a.description, a.origin_link, a.source, a.category, a.language,
		       a.publish_date, a.created_at
		FROM articles a
		JOIN analysis_records r ON r.article_id = a.id
		WHERE a.id IN (`+placeholders(len(ids))+`)
		  AND (r.bias_label IS NULL OR r.bias_label != 'BIASED')
		  AND a.created_at >= ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter recommendable articles: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.OriginLink, &a.Source,
			&a.Category, &a.Language, &a.PublishDate, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommendable article: %v", err)
		}
		recommendable[a.ID] = a
	}
	return recommendable, rows.Err()
}

// CleanupOldArticles removes articles older than the specified retention period
func (s *SQLiteStorage) CleanupOldArticles(retention time.Duration) error {
	cutoff := time.Now().UTC().Add(-retention)

	result, err := s.db.Exec("DELETE FROM articles WHERE created_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old articles: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rowsAffected > 0 {
		log.Printf("Cleaned up %d old articles (older than %v)", rowsAffected, retention)
	}

	return nil
}

func (s *SQLiteStorage) GetDatabaseStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var articleCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&articleCount); err != nil {
		return nil, fmt.Errorf("failed to count articles: %v", err)
	}
	stats["articles"] = articleCount

	rows, err := s.db.Query("SELECT status, COUNT(*) FROM analysis_records GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count records by status: %v", err)
	}
	defer rows.Close()

	byStatus := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %v", err)
		}
		byStatus[strings.ToLower(status)] = count
	}
	stats["records_by_status"] = byStatus

	var clusterCount int
	if err := s.db.QueryRow("SELECT COUNT(DISTINCT cluster_id) FROM analysis_records WHERE cluster_id IS NOT NULL").Scan(&clusterCount); err != nil {
		return nil, fmt.Errorf("failed to count clusters: %v", err)
	}
	stats["clusters"] = clusterCount

	var userCount int
	if err := s.db.QueryRow("SELECT COUNT(DISTINCT user_id) FROM user_read_history").Scan(&userCount); err != nil {
		return nil, fmt.Errorf("failed to count users: %v", err)
	}
	stats["users_with_history"] = userCount

	return stats, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// placeholders returns "?, ?, ..." with n entries for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
