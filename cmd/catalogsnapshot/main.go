// catalogsnapshot 预先计算职业目录向量并写入快照，可选地把数据文件导入 MySQL
package main

import (
	"context"
	"fmt"
	"os"

	"career-guide-go/internal/bootstrap"
	"career-guide-go/internal/catalog"
	"career-guide-go/internal/config"
	"career-guide-go/internal/logger"
	"career-guide-go/internal/parser"
	"career-guide-go/internal/storage"
	"career-guide-go/internal/storage/models"
	"career-guide-go/internal/tracing"

	"github.com/spf13/pflag"
)

func main() {
	var (
		configPath string
		importPath string
	)
	pflag.StringVarP(&configPath, "config", "c", "configs/config.yaml", "配置文件路径")
	pflag.StringVar(&importPath, "import", "", "导入到 MySQL careers 表的 JSON/YAML 数据文件")
	pflag.Parse()

	if err := run(configPath, importPath); err != nil {
		fmt.Fprintf(os.Stderr, "catalogsnapshot: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, importPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	log := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
	})

	ctx := context.Background()
	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("初始化链路追踪失败: %w", err)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			log.Warn().Err(err).Msg("关闭链路追踪失败")
		}
	}()

	st, err := storage.NewStorage(ctx, cfg, logger.Component("storage"))
	if err != nil {
		return fmt.Errorf("初始化存储失败: %w", err)
	}
	defer st.Close()

	if importPath != "" {
		if st.MySQL == nil {
			return fmt.Errorf("--import 需要 catalog.source 为 mysql 或启用 snapshot_in_mysql")
		}
		n, err := importCareers(ctx, st.MySQL, importPath)
		if err != nil {
			return err
		}
		log.Info().Str("file", importPath).Int("careers", n).Msg("职业数据已导入 MySQL")
	}

	if bootstrap.SnapshotStore(cfg, st) == nil {
		return fmt.Errorf("未配置 catalog.snapshot_path 或 snapshot_in_mysql，无处写入快照")
	}

	embedder, err := parser.NewOpenAIEmbedder(cfg.Embedding, parser.WithEmbedderLogger(logger.Component("embedder")))
	if err != nil {
		return fmt.Errorf("初始化向量化客户端失败: %w", err)
	}
	cat, err := bootstrap.LoadCatalog(ctx, cfg, st, embedder, logger.Component("catalog"))
	if err != nil {
		return fmt.Errorf("加载职业目录失败: %w", err)
	}

	info := cat.Info()
	log.Info().
		Int("careers", info.Size).
		Str("model_version", info.ModelVersion).
		Int("dimensions", info.Dimensions).
		Msg("向量快照已就绪")
	return nil
}

// importCareers 读取数据文件，校验后按 title 写入 careers 表
func importCareers(ctx context.Context, db *storage.MySQL, path string) (int, error) {
	records, err := catalog.NewFileSource(path).Load(ctx)
	if err != nil {
		return 0, err
	}
	if err := catalog.Validate(records); err != nil {
		return 0, err
	}
	rows := make([]models.Career, 0, len(records))
	for i, r := range records {
		row, err := models.CareerFromRecord(r, i)
		if err != nil {
			return 0, fmt.Errorf("转换 %q 失败: %w", r.Title, err)
		}
		rows = append(rows, *row)
	}
	if err := db.UpsertCareers(ctx, rows); err != nil {
		return 0, fmt.Errorf("写入 careers 表失败: %w", err)
	}
	return len(rows), nil
}
