package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/GmapLeads/internal/contact"
	"github.com/RecoveryAshes/GmapLeads/internal/core"
	"github.com/RecoveryAshes/GmapLeads/internal/crawlers"
	"github.com/RecoveryAshes/GmapLeads/internal/models"
	"github.com/RecoveryAshes/GmapLeads/internal/store"
	"github.com/RecoveryAshes/GmapLeads/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 运行输入参数
	inputFile   string
	targetURL   string
	urlFile     string
	searchTerms []string
	location    string

	// 抓取参数
	maxPlaces         int
	maxPlacesPerTerm  int
	maxCost           float64
	maxRunMinutes     int
	language          string
	scrapeContacts    bool
	scrapeDetailPage  bool
	skipClosedPlaces  bool
	maxImages         int
	maxReviews        int
	costOptimizedMode bool
	headless          bool
	proxyUrls         []string
	outputDir         string
)

var rootCmd = &cobra.Command{
	Use:   "gmapleads",
	Short: "Google地图商家信息抓取工具",
	Long: `GmapLeads - Google地图商家信息抓取工具 (Go版本)

围绕一个任务队列调度三类页面抓取,输出结构化商家记录,支持:
  • 搜索词/起始URL两种播种方式
  • 结果列表滚动翻页与详情页字段抽取
  • 商家官网联系方式挖掘 (邮箱/电话/社交链接)
  • 成本预算与商家数量上限
  • 断点状态恢复与会话轮换
  • 自定义HTTP请求头

使用示例:
  # 通过运行输入JSON
  gmapleads -i input.json

  # 通过命令行参数
  gmapleads -s "coffee shop" --location "Berlin, Germany" --max-places 50

  # 验证配置文件
  gmapleads --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 设置信号处理(Ctrl+C优雅退出: 停止取新任务,保留已有产出)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			utils.Warnf("收到中断信号: %v, 正在优雅收尾...", sig)
			cancel()
		}()

		// 重新加载配置(从PersistentPreRunE中获取)
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 创建HTTP头部管理器
		headerManager, err := core.NewHeaderManager("", headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		// 如果用户请求验证配置
		if validateConfig {
			utils.Info("🔍 验证HTTP头部配置...")
			if err := headerManager.LoadConfig(); err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}

			// 显示合并后的头部(脱敏)
			safeHeaders := headerManager.GetSafeHeaders()
			utils.Info("✅ 配置验证通过!")
			utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
			for name, value := range safeHeaders {
				utils.Infof("  %s: %s", name, value)
			}
			return nil
		}

		// 如果没有提供任何输入,显示帮助信息
		if inputFile == "" && targetURL == "" && urlFile == "" && len(searchTerms) == 0 {
			return cmd.Help()
		}

		// 验证参数
		if err := ValidateFlags(targetURL, maxPlaces, maxCost, maxImages, maxReviews); err != nil {
			return err
		}

		// 组装运行输入
		input, err := buildRunInput(cmd)
		if err != nil {
			return err
		}

		// 合并请求头部
		mergedHeaders, err := headerManager.GetHeaders()
		if err != nil {
			return fmt.Errorf("合并HTTP头部失败: %w", err)
		}

		// 输出目录与存储
		if outputDir == "" {
			outputDir = appConfig.Output.BaseDir
		}
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}

		kvStore, err := store.NewFileKVStore(filepath.Join(outputDir, appConfig.Output.StorageDir))
		if err != nil {
			return fmt.Errorf("创建状态存储失败: %w", err)
		}
		dataset, err := store.NewJSONLDataset(filepath.Join(outputDir, appConfig.Output.DatasetFile))
		if err != nil {
			return fmt.Errorf("创建数据集文件失败: %w", err)
		}
		defer dataset.Close()
		failures := store.NewFailureSink(filepath.Join(outputDir, appConfig.Output.FailuresFile))

		// 浏览器会话
		var proxies []string
		if input.ProxyConfig != nil {
			proxies = input.ProxyConfig.ProxyUrls
		}
		session := crawlers.NewBrowserSession(crawlers.SessionConfig{
			Headless:       headless && appConfig.Browser.Headless,
			ProxyURLs:      proxies,
			NavTimeout:     time.Duration(appConfig.Browser.NavTimeoutSec) * time.Second,
			Headers:        mergedHeaders,
			BlockResources: appConfig.Browser.BlockResources,
		})
		if err := session.Start(); err != nil {
			return fmt.Errorf("启动浏览器会话失败: %w", err)
		}
		defer session.Close()

		// 资源监控(配置以MB为单位,监控器内部以字节计)
		monitor := crawlers.NewResourceMonitor(crawlers.ResourceMonitorConfig{
			SafetyReserveMemory: appConfig.Resource.SafetyReserveMemory * 1024 * 1024,
			SafetyThreshold:     appConfig.Resource.SafetyThreshold * 1024 * 1024,
			CPULoadThreshold:    appConfig.Resource.CPULoadThreshold,
		})
		monitor.StartMonitoring(30 * time.Second)
		defer monitor.StopMonitoring()

		// 联系方式挖掘器
		var miner *contact.Miner
		if input.ContactsEnabled() {
			miner = contact.NewMiner(mergedHeaders, contact.DefaultOptions())
		}

		// 创建调度器
		orchestrator := core.NewOrchestrator(input, core.OrchestratorDeps{
			Queue:      crawlers.NewTaskQueue(0),
			Session:    session,
			Estimator:  core.NewCostEstimator(input.MaxCostPerRun),
			StateStore: kvStore,
			Dataset:    dataset,
			Failures:   failures,
			Miner:      miner,
			Monitor:    monitor,
		})

		// 执行抓取
		summary, err := orchestrator.Run(ctx)
		if err != nil {
			return fmt.Errorf("抓取运行失败: %w", err)
		}

		// 生成运行报告
		summary.DatasetFile = filepath.Join(outputDir, appConfig.Output.DatasetFile)
		summary.OutputDir = outputDir
		reporter := utils.NewReporter(outputDir)
		if err := reporter.WriteRunReport(summary, appConfig.Output.ReportFile); err != nil {
			utils.Errorf("写出运行报告失败: %v", err)
		}

		// 显示统计结果
		fmt.Println("\n==================================================")
		fmt.Println("📊 抓取统计")
		fmt.Println("==================================================")
		fmt.Printf("✅ 处理任务数: %d\n", summary.TasksProcessed)
		fmt.Printf("✅ 搜索页数: %d\n", summary.SearchPages)
		fmt.Printf("✅ 详情页数: %d\n", summary.DetailPages)
		fmt.Printf("✅ 输出商家数: %d\n", summary.PlacesScraped)
		fmt.Printf("⏭️  跳过停业商家: %d\n", summary.SkippedClosed)
		fmt.Printf("❌ 失败任务数: %d\n", summary.FailedTasks)
		fmt.Printf("🔄 会话轮换次数: %d\n", summary.SessionRotations)
		fmt.Printf("💰 估算成本: $%s\n", summary.Cost.Costs.TotalCost)
		fmt.Printf("⏱️  总耗时: %.2f秒\n", summary.Duration)
		fmt.Println("==================================================")

		utils.Info("✨ 抓取任务完成!")
		return nil
	},
}

// buildRunInput 组装运行输入
// 优先级: 运行输入JSON为基底,显式传入的命令行参数覆盖对应字段
func buildRunInput(cmd *cobra.Command) (*models.RunInput, error) {
	var input *models.RunInput

	if inputFile != "" {
		loaded, err := core.LoadRunInput(inputFile)
		if err != nil {
			return nil, err
		}
		input = loaded
	} else {
		input = &models.RunInput{}
	}

	if targetURL != "" {
		normalized, err := NormalizeURL(targetURL)
		if err != nil {
			return nil, fmt.Errorf("无效的目标URL: %w", err)
		}
		input.StartUrls = append(input.StartUrls, models.StartURL{URL: normalized})
	}
	if urlFile != "" {
		urls, err := utils.ReadURLsFromFile(urlFile)
		if err != nil {
			return nil, fmt.Errorf("读取URL文件失败: %w", err)
		}
		for _, u := range urls {
			input.StartUrls = append(input.StartUrls, models.StartURL{URL: u})
		}
	}
	if len(searchTerms) > 0 {
		input.SearchStringsArray = append(input.SearchStringsArray, searchTerms...)
	}

	// 显式传入的标志覆盖JSON中的值
	if cmd.Flags().Changed("location") {
		input.SearchLocation = location
	}
	if cmd.Flags().Changed("max-places") {
		input.MaxCrawledPlaces = maxPlaces
	}
	if cmd.Flags().Changed("max-places-per-term") {
		input.MaxCrawledPlacesPerSearch = maxPlacesPerTerm
	}
	if cmd.Flags().Changed("max-cost") {
		input.MaxCostPerRun = maxCost
	}
	if cmd.Flags().Changed("max-run-minutes") {
		input.MaxRunMinutes = maxRunMinutes
	}
	if cmd.Flags().Changed("language") {
		input.Language = language
	}
	if cmd.Flags().Changed("contacts") {
		input.ScrapeContacts = scrapeContacts
	}
	if cmd.Flags().Changed("detail-page") {
		input.ScrapePlaceDetailPage = scrapeDetailPage
	}
	if cmd.Flags().Changed("skip-closed") {
		input.SkipClosedPlaces = skipClosedPlaces
	}
	if cmd.Flags().Changed("max-images") {
		input.MaxImages = maxImages
	}
	if cmd.Flags().Changed("max-reviews") {
		input.MaxReviews = maxReviews
	}
	if cmd.Flags().Changed("cost-optimized") {
		input.CostOptimizedMode = costOptimizedMode
	}
	if len(proxyUrls) > 0 {
		input.ProxyConfig = &models.ProxyConfig{ProxyUrls: proxyUrls}
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}
	input.ApplyDefaults()
	input.ApplyCostOptimizedMode()

	return input, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("GmapLeads %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - Google地图商家信息抓取工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 运行输入参数
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", "运行输入JSON文件路径")
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "起始URL (地图搜索页或商家详情页)")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含起始URL列表的文件路径")
	rootCmd.Flags().StringArrayVarP(&searchTerms, "search", "s", []string{}, "搜索词,可多次指定")
	rootCmd.Flags().StringVar(&location, "location", "", "自由文本位置描述 (如 'Berlin, Germany')")

	// 抓取参数
	rootCmd.Flags().IntVar(&maxPlaces, "max-places", 0, "全局商家数量上限 (0=不限)")
	rootCmd.Flags().IntVar(&maxPlacesPerTerm, "max-places-per-term", 0, "单个搜索词商家上限 (0=不限)")
	rootCmd.Flags().Float64Var(&maxCost, "max-cost", 0, "单次运行成本上限(美元, 0=不限)")
	rootCmd.Flags().IntVar(&maxRunMinutes, "max-run-minutes", 10, "运行时长上限(分钟)")
	rootCmd.Flags().StringVar(&language, "language", "en", "页面语言 (hl参数)")
	rootCmd.Flags().BoolVar(&scrapeContacts, "contacts", false, "挖掘商家官网联系方式")
	rootCmd.Flags().BoolVar(&scrapeDetailPage, "detail-page", true, "抽取详情页扩展字段")
	rootCmd.Flags().BoolVar(&skipClosedPlaces, "skip-closed", false, "跳过永久停业的商家")
	rootCmd.Flags().IntVar(&maxImages, "max-images", 0, "单个商家图片数量上限")
	rootCmd.Flags().IntVar(&maxReviews, "max-reviews", 0, "单个商家评论数量上限")
	rootCmd.Flags().BoolVar(&costOptimizedMode, "cost-optimized", false, "省钱模式 (收紧各类上限)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().StringSliceVar(&proxyUrls, "proxy", []string{}, "代理地址,可多次指定,会话轮换时按序取用")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出目录 (默认取配置文件)")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
