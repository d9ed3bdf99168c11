package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Olprog59/go-noticegen/internal/config"
	"github.com/Olprog59/go-noticegen/internal/metrics"
	"github.com/Olprog59/go-noticegen/internal/ports"
	"github.com/Olprog59/go-noticegen/internal/render"
	"github.com/Olprog59/go-noticegen/internal/repository"
	"github.com/Olprog59/go-noticegen/internal/repository/db"
	"github.com/Olprog59/go-noticegen/internal/service"
	"github.com/Olprog59/go-noticegen/internal/service/session"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container holds application dependencies / Contient les dépendances de l'application
type Container struct {
	DB         *sql.DB // nil with the memory backend
	Store      ports.SessionStore
	Renderer   *render.Renderer
	WizardSvc  *service.WizardService
	EditorAuth *service.EditorAuth // nil when the editor gate is off
	Config     *config.Config
	Metrics    *metrics.Metrics
	Registry   *prometheus.Registry
	ctxCancel  context.CancelFunc
	wg         sync.WaitGroup
}

// NewContainer initializes application container / Initialise le conteneur de l'application
func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	// Each container owns its registry so several can live in one process
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.NewMetrics(c.Registry)

	if err := c.ensureSessionSecret(); err != nil {
		return nil, err
	}

	if err := c.initDatabase(); err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}

	if err := c.runMigrations(); err != nil {
		c.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	c.initRepositories()

	if err := c.initServices(); err != nil {
		c.Close()
		return nil, fmt.Errorf("service init: %w", err)
	}

	c.updateDatabaseMetrics()

	return c, nil
}

// ensureSessionSecret generates a process-local cookie key when none is configured.
// Production configs are rejected earlier by config validation.
func (c *Container) ensureSessionSecret() error {
	if c.Config.Session.Secret != "" {
		return nil
	}

	secret, err := session.GenerateSecret()
	if err != nil {
		return fmt.Errorf("generate session secret: %w", err)
	}
	c.Config.Session.Secret = secret
	slog.Warn("session.secret not set, using a random key: sessions will not survive a restart")
	return nil
}

// databaseType returns the configured backend, memory when unset.
func (c *Container) databaseType() db.DatabaseType {
	dbType := db.ParseDatabaseType(strings.ToLower(c.Config.Database.Type))
	if dbType == "" {
		return db.Memory
	}
	return dbType
}

// initDatabase initializes database connection / Initialise la connexion à la base de données
func (c *Container) initDatabase() error {
	dbType := c.databaseType()
	if !dbType.IsSQL() {
		slog.Info("session store kept in memory")
		return nil
	}

	database, err := db.Open(db.DatabaseConfig{
		Type:         dbType,
		DSN:          c.Config.Database.DSN,
		MaxOpenConns: c.Config.Database.MaxOpenConns,
		MaxIdleConns: c.Config.Database.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize %s database: %w", dbType, err)
	}

	c.DB = database
	return nil
}

// runMigrations applies database migrations / Applique les migrations de base de données
func (c *Container) runMigrations() error {
	if c.DB == nil {
		return nil
	}
	return db.Migrate(c.DB, c.databaseType(), c.Config.Database.MigrationsPath)
}

// initRepositories initializes repositories / Initialise les repositories
func (c *Container) initRepositories() {
	adapter := repository.NewAdapter(c.DB, c.databaseType().String())
	c.Store = adapter.SessionStore()

	slog.Info("session store initialized", "type", c.databaseType())
}

// initServices initializes application services / Initialise les services applicatifs
func (c *Container) initServices() error {
	renderer, err := render.NewRenderer(c.Config.CMS)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	c.Renderer = renderer

	c.WizardSvc = service.NewWizardService(c.Store, c.Renderer, c.Config, c.Metrics)

	c.EditorAuth, err = service.NewEditorAuth(c.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize editor auth: %w", err)
	}
	if c.EditorAuth == nil {
		slog.Warn("editor authentication disabled: anyone reaching the server can use the wizard")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.ctxCancel = cancel

	c.startPurgeRoutine(ctx)

	// Start automatic backup goroutine if enabled / Démarre la goroutine de backup automatique si activée
	if c.Config.Backup.Enabled {
		c.startBackupRoutine(ctx)
	}

	return nil
}

// startPurgeRoutine removes expired drafts periodically / Supprime périodiquement les brouillons expirés
func (c *Container) startPurgeRoutine(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Metrics.SetBackgroundTaskStatus("session_purge", true)
		ticker := time.NewTicker(c.Config.Session.PurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := c.WizardSvc.PurgeExpired(ctx, time.Now()); err != nil {
					slog.Error("session purge failed", "err", err)
				}
				c.updateDatabaseMetrics()
			case <-ctx.Done():
				c.Metrics.SetBackgroundTaskStatus("session_purge", false)
				slog.Info("purge goroutine stopped")
				return
			}
		}
	}()
}

// updateDatabaseMetrics updates database metrics / Met à jour les métriques de la BD
func (c *Container) updateDatabaseMetrics() {
	if c.DB == nil {
		return
	}
	stats := c.DB.Stats()
	c.Metrics.UpdateDatabaseConnections(stats.OpenConnections)
}

// startBackupRoutine starts automatic backup routine / Démarre la routine de backup automatique
func (c *Container) startBackupRoutine(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Metrics.SetBackgroundTaskStatus("database_backup", true)
		ticker := time.NewTicker(c.Config.Backup.Interval)
		defer ticker.Stop()

		slog.Info("automatic database backup enabled",
			"interval", c.Config.Backup.Interval,
			"retention_days", c.Config.Backup.RetentionDays)

		for {
			select {
			case <-ticker.C:
				if _, err := c.performBackup(); err != nil {
					slog.Error("backup failed", "err", err)
				}
				// Clean old backups after creating new one / Nettoie les anciens backups après création
				if err := c.cleanOldBackups(); err != nil {
					slog.Error("backup cleanup failed", "err", err)
				}
			case <-ctx.Done():
				c.Metrics.SetBackgroundTaskStatus("database_backup", false)
				slog.Info("backup goroutine stopped")
				return
			}
		}
	}()
}

// performBackup creates database backup / Crée un backup de la base de données
func (c *Container) performBackup() (string, error) {
	if c.DB == nil {
		return "", fmt.Errorf("no database to back up")
	}

	// Create backup directory if not exists / Crée le répertoire de backup s'il n'existe pas
	if err := os.MkdirAll(c.Config.Backup.Path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	// Extract database filename from DSN / Extrait le nom du fichier depuis le DSN
	dbName := strings.TrimPrefix(c.Config.Database.DSN, "file:")
	if idx := strings.Index(dbName, "?"); idx >= 0 {
		dbName = dbName[:idx]
	}
	if dbName == "" || dbName == ":memory:" {
		return "", fmt.Errorf("cannot backup in-memory database")
	}

	// Generate backup filename with timestamp / Génère le nom du fichier avec horodatage
	timestamp := time.Now().Format("20060102-150405")
	backupFilename := fmt.Sprintf("%s.backup-%s.db", filepath.Base(dbName), timestamp)
	backupPath := filepath.Join(c.Config.Backup.Path, backupFilename)

	// VACUUM INTO needs SQLite 3.27.0+ / VACUUM INTO nécessite SQLite 3.27.0+
	if _, err := c.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
		return "", fmt.Errorf("backup execution failed: %w", err)
	}

	size := "unknown"
	if info, err := os.Stat(backupPath); err == nil {
		size = humanize.IBytes(uint64(info.Size()))
	}
	slog.Info("database backup created", "path", backupPath, "size", size)
	return backupPath, nil
}

// cleanOldBackups removes old backups / Supprime les anciens backups
func (c *Container) cleanOldBackups() error {
	if c.Config.Backup.RetentionDays <= 0 {
		return nil // No cleanup if retention is 0 or negative / Pas de nettoyage si rétention <= 0
	}

	cutoffTime := time.Now().AddDate(0, 0, -c.Config.Backup.RetentionDays)

	entries, err := os.ReadDir(c.Config.Backup.Path)
	if err != nil {
		return fmt.Errorf("failed to read backup directory: %w", err)
	}

	deletedCount := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Only delete .backup-*.db files / Ne supprime que les fichiers .backup-*.db
		if !isBackupFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			slog.Warn("failed to get backup file info", "file", entry.Name(), "err", err)
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			backupPath := filepath.Join(c.Config.Backup.Path, entry.Name())
			if err := os.Remove(backupPath); err != nil {
				slog.Warn("failed to delete old backup", "file", entry.Name(), "err", err)
			} else {
				deletedCount++
				slog.Info("deleted old backup",
					"file", entry.Name(),
					"age_days", int(time.Since(info.ModTime()).Hours()/24))
			}
		}
	}

	if deletedCount > 0 {
		slog.Info("cleaned up old backups", "count", deletedCount)
	}

	return nil
}

func isBackupFile(name string) bool {
	return strings.Contains(name, ".backup-") && strings.HasSuffix(name, ".db")
}

// Close performs graceful shutdown / Effectue un arrêt gracieux
func (c *Container) Close() error {
	if c.ctxCancel != nil {
		c.ctxCancel()
	}
	c.wg.Wait()
	if c.DB != nil {
		slog.Info("closing database")
		return c.DB.Close()
	}
	return nil
}
