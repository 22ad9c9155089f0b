package database

import (
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var sensitiveLiterals = regexp.MustCompile(`(verification_token_hash|elder_phone|password)\s*=\s*'[^']*'`)

// OTELPlugin GORM OpenTelemetry 插件，每条语句一个 client span
type OTELPlugin struct {
	tracer   trace.Tracer
	queries  metric.Int64Counter
	duration metric.Float64Histogram
	config   PluginConfig
}

// PluginConfig 插件配置
type PluginConfig struct {
	ServiceName  string
	MaxSQLLength int
}

func DefaultPluginConfig() PluginConfig {
	return PluginConfig{
		ServiceName:  "dignity-dialogue",
		MaxSQLLength: 500,
	}
}

func NewOTELPlugin(config PluginConfig) *OTELPlugin {
	if config.ServiceName == "" {
		config.ServiceName = DefaultPluginConfig().ServiceName
	}
	if config.MaxSQLLength <= 0 {
		config.MaxSQLLength = DefaultPluginConfig().MaxSQLLength
	}

	meter := otel.Meter(config.ServiceName + ".gorm")
	queries, _ := meter.Int64Counter("db.queries.total",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{query}"),
	)
	duration, _ := meter.Float64Histogram("db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
	)

	return &OTELPlugin{
		tracer:   otel.Tracer(config.ServiceName + ".gorm"),
		queries:  queries,
		duration: duration,
		config:   config,
	}
}

func (p *OTELPlugin) Name() string {
	return "otel_plugin"
}

func (p *OTELPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after); err != nil {
		return err
	}
	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("otel:before_row", p.before); err != nil {
		return err
	}
	return cb.Row().After("gorm:row").Register("otel:after_row", p.after)
}

func (p *OTELPlugin) before(db *gorm.DB) {
	ctx, span := p.tracer.Start(db.Statement.Context, "db."+tableName(db),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			attribute.String("db.table", tableName(db)),
		),
	)

	db.InstanceSet("otel:start_time", time.Now())
	db.InstanceSet("otel:span", span)
	db.Statement.Context = ctx
}

func (p *OTELPlugin) after(db *gorm.DB) {
	v, ok := db.InstanceGet("otel:span")
	if !ok {
		return
	}
	span, ok := v.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	operation := OperationName(db.Statement.SQL.String())
	span.SetName(operation)
	span.SetAttributes(
		semconv.DBOperation(operation),
		semconv.DBStatement(p.SanitizeSQL(db.Statement.SQL.String())),
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	)

	status := "success"
	switch {
	case db.Error == nil:
		span.SetStatus(codes.Ok, "")
	case db.Error == gorm.ErrRecordNotFound:
		span.SetStatus(codes.Ok, "record not found")
	default:
		status = "error"
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	attrs := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.status", status),
	)
	if p.queries != nil {
		p.queries.Add(db.Statement.Context, 1, attrs)
	}
	if start, ok := db.InstanceGet("otel:start_time"); ok && p.duration != nil {
		if t, ok := start.(time.Time); ok {
			p.duration.Record(db.Statement.Context, time.Since(t).Seconds(), attrs)
		}
	}
}

func tableName(db *gorm.DB) string {
	if db.Statement.Table == "" {
		return "unknown"
	}
	return db.Statement.Table
}

// OperationName 由 SQL 动词得到 span 名
func OperationName(sql string) string {
	s := strings.ToUpper(strings.TrimSpace(sql))
	switch {
	case s == "":
		return "db.unknown"
	case strings.HasPrefix(s, "SELECT"):
		return "db.select"
	case strings.HasPrefix(s, "INSERT"):
		return "db.insert"
	case strings.HasPrefix(s, "UPDATE"):
		return "db.update"
	case strings.HasPrefix(s, "DELETE"):
		return "db.delete"
	default:
		return "db.query"
	}
}

// SanitizeSQL 截断并抹掉电话号码与 token 摘要等字面量
func (p *OTELPlugin) SanitizeSQL(sql string) string {
	if len(sql) > p.config.MaxSQLLength {
		sql = sql[:p.config.MaxSQLLength] + "..."
	}
	return sensitiveLiterals.ReplaceAllString(sql, "$1='***'")
}
