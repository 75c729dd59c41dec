package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	redisclient "github.com/archalign/validation-backend/internal/clients/redis"
	"github.com/archalign/validation-backend/internal/db"
	"github.com/archalign/validation-backend/internal/logger"
)

// Metrics is a small in-process registry exposed in Prometheus text format.
// The surface is deliberately tiny: request counters, cycle outcomes and
// dependency gauges.
type Metrics struct {
	apiRequests   *CounterVec
	apiInflight   *Gauge
	cycleFinished *CounterVec
	issuesFound   *Counter
	pgUp          *Gauge
	redisUp       *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = &Metrics{
			apiRequests:   NewCounterVec("av_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
			apiInflight:   NewGauge("av_api_inflight_requests", "In-flight API requests."),
			cycleFinished: NewCounterVec("av_validation_cycles_total", "Finished validation cycles by terminal status.", []string{"status"}),
			issuesFound:   NewCounter("av_validation_issues_found_total", "Unsuppressed issues found across all cycles."),
			pgUp:          NewGauge("av_postgres_up", "Postgres reachability (1 up, 0 down)."),
			redisUp:       NewGauge("av_redis_up", "Redis reachability (1 up, 0 down, -1 disabled)."),
		}
		if log != nil {
			log.Info("In-process metrics enabled")
		}
	})
	return instance
}

// CycleFinished implements services.CycleMetrics.
func (m *Metrics) CycleFinished(status string, issues int) {
	if m == nil {
		return
	}
	m.cycleFinished.Inc(status)
	if issues > 0 {
		m.issuesFound.Add(float64(issues))
	}
}

// GinMiddleware counts requests per method/route/status.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.apiInflight.Inc()
		c.Next()
		m.apiInflight.Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.apiRequests.Inc(c.Request.Method, route, strconv.Itoa(c.Writer.Status()))
	}
}

// StartProbes periodically pings the datastore and cache and records the
// reachability gauges. The cache probe may be nil.
func (m *Metrics) StartProbes(ctx context.Context, pg *db.PostgresService, cache redisclient.Probe) {
	if m == nil {
		return
	}
	if cache == nil {
		m.redisUp.Set(-1)
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if pg != nil {
					if err := pg.Ping(); err != nil {
						m.pgUp.Set(0)
					} else {
						m.pgUp.Set(1)
					}
				}
				if cache != nil {
					pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
					if _, err := cache.Ping(pingCtx); err != nil {
						m.redisUp.Set(0)
					} else {
						m.redisUp.Set(1)
					}
					cancel()
				}
			}
		}
	}()
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		if m == nil {
			c.String(http.StatusOK, "# metrics disabled\n")
			return
		}
		w := c.Writer
		_ = m.apiRequests.WritePrometheus(w)
		_ = m.apiInflight.WritePrometheus(w)
		_ = m.cycleFinished.WritePrometheus(w)
		_ = m.issuesFound.WritePrometheus(w)
		_ = m.pgUp.WritePrometheus(w)
		_ = m.redisUp.WritePrometheus(w)
	}
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 10 * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl]++
	c.mu.Unlock()
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.values {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, v); err != nil {
			return err
		}
	}
	return nil
}

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Add(v float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val += v
	c.mu.Unlock()
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", c.name, c.val)
	return err
}

type Gauge struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Set(v float64) {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val = v
	g.mu.Unlock()
}

func (g *Gauge) Inc() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val++
	g.mu.Unlock()
}

func (g *Gauge) Dec() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val--
	g.mu.Unlock()
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", g.name, g.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s gauge\n", g.name); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", g.name, g.val)
	return err
}

func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		val := ""
		if i < len(values) {
			val = values[i]
		}
		b.WriteString(name)
		b.WriteString("=\"")
		b.WriteString(escapeLabel(val))
		b.WriteString("\"")
	}
	b.WriteString("}")
	return b.String()
}

func escapeLabel(v string) string {
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}
