//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"play_grabar/internal/domain"
	mysqlrepo "play_grabar/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string        { return &s }
func ptime(t time.Time) *time.Time { return &t }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- the test ----------
func TestRepo_MySQL_UpsertAndList(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=grabar",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "grabar")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	at := time.Date(2021, 9, 25, 10, 0, 0, 0, time.UTC)
	rs := []domain.Review{
		{
			ID: "r-new", AppID: "com.kyivdigital", CreatedAt: at,
			Content: "добре", Language: "uk", Score: 5, ThumbsUp: 3,
			Author: pstr("Olena"),
		},
		{
			ID: "r-old", AppID: "com.kyivdigital", CreatedAt: at.Add(-2 * time.Hour),
			Content: "ok", Language: "en", Score: 4,
			RepliedAt: ptime(at.Add(-time.Hour)), ReplyContent: pstr("thanks"),
		},
	}
	if err := repo.UpsertReviews(ctx, rs); err != nil {
		t.Fatalf("UpsertReviews: %v", err)
	}

	// Re-grab of the same review with missing optional fields must keep the
	// stored values (COALESCE on duplicate key).
	if err := repo.UpsertReviews(ctx, []domain.Review{
		{ID: "r-new", AppID: "com.kyivdigital", CreatedAt: at, Content: "добре", Language: "uk", Score: 5, ThumbsUp: 4},
	}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	page, err := repo.ListReviews(ctx, "com.kyivdigital", domain.PageQuery{Limit: 10})
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(page.Items))
	}
	// newest first
	if page.Items[0].ID != "r-new" || page.Items[1].ID != "r-old" {
		t.Fatalf("unexpected order: %s, %s", page.Items[0].ID, page.Items[1].ID)
	}
	if page.Items[0].Author == nil || *page.Items[0].Author != "Olena" {
		t.Fatalf("author lost on re-upsert: %+v", page.Items[0])
	}
	if page.Items[0].ThumbsUp != 4 {
		t.Fatalf("thumbs_up not updated: %d", page.Items[0].ThumbsUp)
	}
	if page.Items[1].RepliedAt == nil || page.Items[1].ReplyContent == nil {
		t.Fatalf("reply fields lost: %+v", page.Items[1])
	}

	if err := repo.LogFetch(ctx, domain.FetchLog{
		AppID: "com.kyivdigital", Languages: "en,uk",
		Cutoff: at.Add(-24 * time.Hour), Records: 2,
	}); err != nil {
		t.Fatalf("LogFetch: %v", err)
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM fetch_log WHERE app_id=?", "com.kyivdigital").Scan(&n); err != nil || n != 1 {
		t.Fatalf("fetch_log count=%d err=%v", n, err)
	}
}
