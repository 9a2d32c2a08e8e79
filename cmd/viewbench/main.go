// viewbench 对浏览去重、会话存储和公开列表缓存做压测：
// 一组访客反复访问职位详情，统计 TrackView 延迟与唯一浏览比例；
// 会话的创建与读取延迟；公开列表无缓存与 Redis 缓存的延迟对比。
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/jobboard/internal/cache"
	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/repository"
	"github.com/d60-Lab/jobboard/internal/service"
	"github.com/d60-Lab/jobboard/internal/session"
)

func main() {
	var (
		useSQLite = flag.Bool("sqlite", false, "use in-memory sqlite instead of PostgreSQL")
		dsn       = flag.String("dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN")
		redisAddr = flag.String("redis", os.Getenv("REDIS_ADDR"), "Redis address, empty starts an embedded miniredis")
		postings  = flag.Int("postings", 200, "number of active postings")
		visitors  = flag.Int("visitors", 500, "number of distinct visitors")
		views     = flag.Int("views", 20000, "number of detail views")
		workers   = flag.Int("workers", 8, "concurrent viewers")
		listReqs  = flag.Int("list", 3000, "public listing requests per scenario")
		sessCount = flag.Int("sessions", 5000, "sessions to create and read back")
	)
	flag.Parse()
	ctx := context.Background()

	db := openDB(*useSQLite, *dsn)
	store := repository.NewStore(db)
	mustDo(resetSchema(db))
	mustDo(store.InitSchema())

	rdb, cleanup := openRedis(ctx, *redisAddr)
	defer cleanup()

	fmt.Println("Setting up test data...")
	ids := seed(ctx, db, *postings)
	fmt.Printf("Test data ready: %d postings\n", len(ids))

	tracker := service.NewViewTracker(store)
	vr := runViews(ctx, tracker, ids, *visitors, *views, *workers, *useSQLite)

	fmt.Printf("\nView tracking (%d views, %d visitors, %d postings, %d workers)\n", *views, *visitors, len(ids), *workers)
	fmt.Printf("%-18s avg=%v p95=%v p99=%v unique=%d repeat=%d errors=%d\n",
		"TrackView", avg(vr.durations), pct(vr.durations, 0.95), pct(vr.durations, 0.99),
		vr.unique, vr.repeat, vr.errors,
	)

	sr := runSessions(ctx, session.NewStore(rdb), *sessCount)
	fmt.Printf("\nSession store (%d sessions)\n", *sessCount)
	fmt.Printf("%-18s avg=%v p95=%v p99=%v\n", "Create", avg(sr.create), pct(sr.create, 0.95), pct(sr.create, 0.99))
	fmt.Printf("%-18s avg=%v p95=%v p99=%v misses=%d\n", "Get", avg(sr.get), pct(sr.get, 0.95), pct(sr.get, 0.99), sr.misses)

	rc := cache.NewReadCache(rdb, 10*time.Minute, time.Minute, nil)
	reqs := makeRequests(*listReqs)

	noCache := runListing(ctx, rdb, nil, reqs, false, service.NewPostingService(store, nil))
	cached := runListing(ctx, rdb, rc, reqs, true, service.NewPostingService(store, rc))

	fmt.Printf("\nPublic listing latency (%d req)\n", len(reqs))
	for _, r := range []struct {
		name string
		res  listResult
	}{{"No cache", noCache}, {"Redis cache", cached}} {
		fmt.Printf("%-18s avg=%v p95=%v p99=%v hits=%d misses=%d loads=%d cache_keys=%d mem=%s\n",
			r.name, avg(r.res.durations), pct(r.res.durations, 0.95), pct(r.res.durations, 0.99),
			r.res.counters.Hits, r.res.counters.Misses, r.res.counters.Loads,
			r.res.cacheKeys, formatBytes(r.res.memoryBytes),
		)
	}
}

func openDB(useSQLite bool, dsn string) *gorm.DB {
	if useSQLite {
		db := must(gorm.Open(sqlite.Open("file:viewbench?mode=memory&cache=shared"), repository.GormConfig(false)))
		sqlDB := must(db.DB())
		sqlDB.SetMaxOpenConns(1)
		return db
	}
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=postgres port=5432 sslmode=disable TimeZone=UTC"
	}
	return must(repository.OpenPostgres(dsn, repository.PoolConfig{MaxOpenConns: 32, MaxIdleConns: 16}, false))
}

func resetSchema(db *gorm.DB) error {
	for _, m := range []interface{}{&model.PostingView{}, &model.PostingMetric{}, &model.Application{}, &model.Posting{}, &model.User{}} {
		if err := db.Migrator().DropTable(m); err != nil {
			return err
		}
	}
	return nil
}

func openRedis(ctx context.Context, addr string) (*redis.Client, func()) {
	var mr *miniredis.Miniredis
	if addr == "" {
		mr = must(miniredis.Run())
		addr = mr.Addr()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
	}
	return client, func() {
		_ = client.Close()
		if mr != nil {
			mr.Close()
		}
	}
}

func seed(ctx context.Context, db *gorm.DB, n int) []int64 {
	owners := make([]model.User, 20)
	for i := range owners {
		owners[i] = model.User{
			Name:           "Owner",
			Surname:        strconv.Itoa(i),
			Username:       fmt.Sprintf("owner_%d", i),
			Email:          fmt.Sprintf("owner_%d@example.com", i),
			UserType:       model.UserTypeRegular,
			HashedPassword: "x",
		}
	}
	mustDo(db.WithContext(ctx).Create(&owners).Error)

	categories := []string{"engineering", "design", "sales", "support"}
	rows := make([]model.Posting, n)
	base := time.Now().UTC()
	for i := range rows {
		rows[i] = model.Posting{
			Hash:            strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
			UserID:          owners[i%len(owners)].ID,
			Title:           fmt.Sprintf("Posting %d", i),
			PostDescription: "benchmark posting",
			Category:        categories[i%len(categories)],
			Status:          model.PostingStatusActive,
			CreatedAt:       base.Add(-time.Duration(i) * time.Minute),
		}
	}
	mustDo(db.WithContext(ctx).CreateInBatches(&rows, 500).Error)

	ids := make([]int64, len(rows))
	for i, p := range rows {
		ids[i] = p.ID
	}
	return ids
}

type viewResult struct {
	durations []time.Duration
	unique    int
	repeat    int
	errors    int
}

func runViews(ctx context.Context, tracker service.ViewTracker, ids []int64, visitors, n, workers int, serial bool) viewResult {
	if serial {
		// sqlite 单连接，并发只会排队
		workers = 1
	}
	sessions := make([]string, visitors)
	for i := range sessions {
		sessions[i] = uuid.NewString()
	}

	fmt.Print("  Running view benchmark...")
	var (
		mu  sync.Mutex
		out = viewResult{durations: make([]time.Duration, 0, n)}
		wg  sync.WaitGroup
	)
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for range jobs {
				sid := sessions[rnd.Intn(len(sessions))]
				in := service.ViewInput{PostingID: ids[zipf(rnd, len(ids))], SessionID: &sid}
				start := time.Now()
				unique, err := tracker.TrackView(ctx, in)
				d := time.Since(start)

				mu.Lock()
				out.durations = append(out.durations, d)
				switch {
				case err != nil:
					out.errors++
				case unique:
					out.unique++
				default:
					out.repeat++
				}
				mu.Unlock()
			}
		}(int64(42 + w))
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	fmt.Println(" done")
	return out
}

// zipf 让少数热门职位承担大部分浏览
func zipf(rnd *rand.Rand, n int) int {
	i := int(math.Floor(math.Pow(rnd.Float64(), 3) * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}

type sessionResult struct {
	create []time.Duration
	get    []time.Duration
	misses int
}

func runSessions(ctx context.Context, store *session.Store, n int) sessionResult {
	fmt.Print("  Running session benchmark...")
	out := sessionResult{create: make([]time.Duration, 0, n), get: make([]time.Duration, 0, n)}
	tokens := make([]string, 0, n)
	for i := 0; i < n; i++ {
		start := time.Now()
		tok, err := store.Create(ctx, int64(i+1))
		if err != nil {
			panic(err)
		}
		out.create = append(out.create, time.Since(start))
		tokens = append(tokens, tok)
	}
	for _, tok := range tokens {
		start := time.Now()
		s, err := store.Get(ctx, tok)
		if err != nil {
			panic(err)
		}
		out.get = append(out.get, time.Since(start))
		if s == nil {
			out.misses++
		}
	}
	for _, tok := range tokens {
		if _, err := store.Invalidate(ctx, tok); err != nil {
			panic(err)
		}
	}
	fmt.Println(" done")
	return out
}

type request struct {
	category string
	page     int
	size     int
}

type listResult struct {
	durations   []time.Duration
	counters    cache.Counters
	cacheKeys   int
	memoryBytes int64
}

func runListing(ctx context.Context, client *redis.Client, rc *cache.ReadCache, reqs []request, warm bool, svc service.PostingService) listResult {
	client.FlushAll(ctx)
	if rc != nil {
		rc.ResetCounters()
	}

	call := func(r request) {
		if _, err := svc.ListPublic(ctx, r.category, r.page, r.size); err != nil {
			panic(err)
		}
	}
	if warm {
		fmt.Print("  Warming cache...")
		for _, r := range reqs {
			call(r)
		}
		fmt.Println(" done")
		rc.ResetCounters()
	}

	fmt.Print("  Running listing benchmark...")
	out := make([]time.Duration, 0, len(reqs))
	for _, r := range reqs {
		start := time.Now()
		call(r)
		out = append(out, time.Since(start))
	}
	fmt.Println(" done")

	res := listResult{durations: out}
	if rc != nil {
		res.counters = rc.Counters()
	}
	keys, _ := client.Keys(ctx, "*").Result()
	res.cacheKeys = len(keys)
	if info, err := client.Info(ctx, "memory").Result(); err == nil {
		res.memoryBytes = parseRedisMemory(info)
	}
	return res
}

func makeRequests(n int) []request {
	categories := []string{"", "", "engineering", "design", "sales", "support"}
	sizes := []int{10, 20, 50}
	out := make([]request, n)
	rnd := rand.New(rand.NewSource(42))
	for i := range out {
		page := 1
		if rnd.Float64() > 0.8 {
			page = 2 + rnd.Intn(5)
		}
		out[i] = request{
			category: categories[rnd.Intn(len(categories))],
			page:     page,
			size:     sizes[rnd.Intn(len(sizes))],
		}
	}
	return out
}

// parseRedisMemory 读取 INFO memory 中的 used_memory，miniredis 不支持时返回 0
func parseRedisMemory(info string) int64 {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:"); ok {
			n, _ := strconv.ParseInt(v, 10, 64)
			return n
		}
	}
	return 0
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	cp := append([]time.Duration(nil), vs...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	idx := int(math.Ceil(p*float64(len(cp)))) - 1
	if idx < 0 {
		idx = 0
	}
	return cp[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
