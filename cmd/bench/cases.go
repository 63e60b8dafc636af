// README: Smoke cases for quotes, the booking state machine, concurrent assignment and throughput.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: Postgres connect", Run: pingDB},
		{Name: "Env: Redis connect", Run: pingRedis},
		{Name: "Migration: apply (optional)", Run: applyMigration},
		{Name: "Migration: tables exist", Run: tablesExist},
		{Name: "API: health", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/health", nil, false, http.StatusOK)
		}},

		{Name: "Quote: short standard ride is the zonal fare", Run: func(ctx context.Context, r *Runner) Result {
			return r.expectQuote(ctx, map[string]any{"distanceKm": 2, "durationMinutes": 10, "vehicleCategory": "standard"}, 15)
		}},
		{Name: "Quote: traffic fare wins in congestion", Run: func(ctx context.Context, r *Runner) Result {
			return r.expectQuote(ctx, map[string]any{"distanceKm": 5, "durationMinutes": 60, "vehicleCategory": "standard"}, 53.5)
		}},
		{Name: "Quote: unknown category -> 400", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodPost, "/api/quotes", map[string]any{"distanceKm": 2, "vehicleCategory": "bus"}, false, http.StatusBadRequest)
		}},
		{Name: "Admin: missing token -> 401", Run: func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/admin/drivers", nil, false, http.StatusUnauthorized)
		}},

		{Name: "Booking: pending -> in_progress rejected", Run: func(ctx context.Context, r *Runner) Result {
			return r.withBooking(ctx, func(id string) Result {
				return r.expect(ctx, http.MethodPost, "/api/admin/bookings/"+id+"/status", map[string]any{"status": "in_progress"}, true, http.StatusConflict)
			})
		}},
		{Name: "Booking: full lifecycle then terminal", Run: lifecycle},
		{Name: "Concurrency: assign same booking", Run: concurrentAssign},
		{Name: "Perf: quote throughput", Run: func(ctx context.Context, r *Runner) Result {
			return perfLoad(ctx, r, "/api/quotes", map[string]any{"distanceKm": 12.4, "durationMinutes": 28, "vehicleCategory": "berline"})
		}},
	}
}

func pingDB(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.db.Ping(ctx); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func pingRedis(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: statusFail, Note: "redis not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func applyMigration(ctx context.Context, r *Runner) Result {
	if !r.cfg.ApplyMigration {
		return Result{Status: statusSkip, Note: "apply-migration=false"}
	}
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	sql, err := os.ReadFile(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, s := range splitSQL(string(sql)) {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
	}
	return Result{Status: statusPass}
}

func tablesExist(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	tables, err := extractTables(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, t := range tables {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)", t,
		).Scan(&exists)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if !exists {
			return Result{Status: statusFail, Note: "missing table: " + t}
		}
	}
	return Result{Status: statusPass}
}

func lifecycle(ctx context.Context, r *Runner) Result {
	return r.withBooking(ctx, func(id string) Result {
		drivers, err := r.seedDrivers(ctx, 1)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		steps := []struct {
			path string
			body map[string]any
			want int
		}{
			{"/assign", map[string]any{"driverId": drivers[0]}, http.StatusOK},
			{"/status", map[string]any{"status": "in_progress"}, http.StatusOK},
			{"/status", map[string]any{"status": "completed"}, http.StatusOK},
			{"/status", map[string]any{"status": "cancelled"}, http.StatusConflict},
		}
		var total time.Duration
		for _, s := range steps {
			res := r.expect(ctx, http.MethodPost, "/api/admin/bookings/"+id+s.path, s.body, true, s.want)
			if res.Status != statusPass {
				return res
			}
			total += res.Latency
		}
		return Result{Status: statusPass, Latency: total}
	})
}

// concurrentAssign fires one assignment per driver at the same pending booking.
// Reassignment is legal, so several may succeed; each success must be its own
// versioned write and no write may be lost.
func concurrentAssign(ctx context.Context, r *Runner) Result {
	return r.withBooking(ctx, func(id string) Result {
		drivers, err := r.seedDrivers(ctx, r.cfg.Concurrency)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		var wg sync.WaitGroup
		var mu sync.Mutex
		succ, conflicts := 0, 0
		for _, d := range drivers {
			wg.Add(1)
			go func(driverID string) {
				defer wg.Done()
				code, err := r.send(ctx, http.MethodPost, "/api/admin/bookings/"+id+"/assign", map[string]any{"driverId": driverID}, true)
				if err != nil {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				switch {
				case code >= 200 && code < 300:
					succ++
				case code == http.StatusConflict:
					conflicts++
				}
			}(d)
		}
		wg.Wait()

		var version int
		if err := r.db.QueryRow(ctx, `SELECT status_version FROM bookings WHERE id = $1`, id).Scan(&version); err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		note := fmt.Sprintf("success=%d conflict=%d version=%d", succ, conflicts, version)
		if succ >= 1 && version == succ {
			return Result{Status: statusPass, Note: note}
		}
		return Result{Status: statusFail, Note: note}
	})
}

func perfLoad(ctx context.Context, r *Runner, path string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount, limited int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+path, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				mu.Lock()
				switch {
				case err != nil:
					errCount++
				case resp.StatusCode == http.StatusTooManyRequests:
					limited++
				default:
					count++
				}
				mu.Unlock()
				if err == nil {
					_, _ = io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: fmt.Sprintf("no requests completed (rate_limited=%d errors=%d)", limited, errCount)}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f rate_limited=%d errors=%d", rps, limited, errCount)}
}

// withBooking seeds a pending booking tomorrow at 10:00 and runs fn against it.
func (r *Runner) withBooking(ctx context.Context, fn func(id string) Result) Result {
	if r.cfg.AdminToken == "" {
		return Result{Status: statusSkip, Note: "admin-token not set"}
	}
	if r.db == nil {
		return Result{Status: statusSkip, Note: "db not configured"}
	}
	id := uuid.NewString()
	y, m, d := time.Now().AddDate(0, 0, 1).Date()
	at := time.Date(y, m, d, 10, 0, 0, 0, time.Local)
	_, err := r.db.Exec(ctx, `
		INSERT INTO bookings (id, customer_name, customer_phone, pickup, dropoff, scheduled_date,
			estimated_duration_minutes, status, vehicle_category, price)
		VALUES ($1, 'bench', '+33600000000', 'Orly', 'Paris', $2, 45, 'pending', 'berline', 60)`,
		id, at,
	)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return fn(id)
}

func (r *Runner) seedDrivers(ctx context.Context, n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.NewString()
		_, err := r.db.Exec(ctx,
			`INSERT INTO drivers (id, name, phone, is_online) VALUES ($1, $2, '+33600000000', TRUE)`,
			id, fmt.Sprintf("bench-%d", i),
		)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Runner) send(ctx context.Context, method, path string, body any, admin bool) (int, error) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+r.cfg.AdminToken)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (r *Runner) expect(ctx context.Context, method, path string, body any, admin bool, want int) Result {
	start := time.Now()
	code, err := r.send(ctx, method, path, body, admin)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	res := Result{Latency: time.Since(start), Note: fmt.Sprintf("status=%d", code)}
	res.Status = statusFail
	if code == want {
		res.Status = statusPass
	}
	return res
}

func (r *Runner) expectQuote(ctx context.Context, body map[string]any, wantPrice float64) Result {
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/api/quotes", strings.NewReader(string(b)))
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	defer resp.Body.Close()
	var q struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	res := Result{Latency: time.Since(start), Note: fmt.Sprintf("price=%.2f", q.Price)}
	res.Status = statusFail
	if resp.StatusCode == http.StatusOK && q.Price == wantPrice {
		res.Status = statusPass
	}
	return res
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
