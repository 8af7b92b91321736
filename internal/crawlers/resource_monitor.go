package crawlers

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitor 系统资源监控器
// 职责: 周期性采样内存和CPU,为编排器提供两类决策信号:
// 联系方式挖掘前是否允许再开页面,以及是否应该重启浏览器释放内存
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// 缓存的内存统计数据
	lastMemStats runtime.MemStats

	// 系统总内存(字节)
	totalMemory uint64

	// CPU使用率监控
	lastCPUUsage float64
	cpuUsageMu   sync.RWMutex

	// 保护lastMemStats的读写锁
	mu sync.RWMutex

	// 监控控制
	cancelFunc context.CancelFunc
	isRunning  bool
}

// ResourceMonitorConfig 资源监控器配置
type ResourceMonitorConfig struct {
	SafetyReserveMemory int64 // 安全保留内存(字节)
	SafetyThreshold     int64 // 安全阈值(字节)
	CPULoadThreshold    int   // CPU负载阈值(%),>=200视为禁用CPU检查
}

// NewResourceMonitor 创建资源监控器实例
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	// 获取系统总内存(使用gopsutil获取真实系统内存)
	vmStat, err := mem.VirtualMemory()
	var totalMem uint64
	if err != nil {
		log.Warn().Err(err).Msg("获取系统内存失败,使用默认值")
		totalMem = 4 * 1024 * 1024 * 1024 // 默认4GB
	} else {
		totalMem = vmStat.Total
		log.Info().Msgf("系统总内存: %.2f GB", float64(totalMem)/(1024*1024*1024))
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &ResourceMonitor{
		config:       config,
		totalMemory:  totalMem,
		lastMemStats: memStats,
	}
}

// StartMonitoring 启动后台采样goroutine
func (rm *ResourceMonitor) StartMonitoring(interval time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	// 已在运行时直接返回(幂等)
	if rm.isRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	rm.cancelFunc = cancel
	rm.isRunning = true

	go rm.monitoringLoop(ctx, interval)
}

// monitoringLoop 后台监控循环
func (rm *ResourceMonitor) monitoringLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)

			rm.mu.Lock()
			rm.lastMemStats = memStats
			rm.mu.Unlock()

			rm.cpuUsageMu.Lock()
			rm.lastCPUUsage = rm.sampleCPUUsage()
			rm.cpuUsageMu.Unlock()
		}
	}
}

// sampleCPUUsage 采样系统CPU使用率(百分比)
func (rm *ResourceMonitor) sampleCPUUsage() float64 {
	// 100毫秒采样间隔,避免阻塞过久; perCPU=false返回平均值
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(percentages) == 0 {
		log.Warn().Err(err).Msg("获取CPU使用率失败")
		return 0.0
	}
	return percentages[0]
}

// StopMonitoring 停止资源监控
func (rm *ResourceMonitor) StopMonitoring() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.isRunning && rm.cancelFunc != nil {
		rm.cancelFunc()
		rm.isRunning = false
		rm.cancelFunc = nil
	}
}

// availableMemory 当前可用内存(字节)
func (rm *ResourceMonitor) availableMemory() int64 {
	rm.mu.RLock()
	memStats := rm.lastMemStats
	rm.mu.RUnlock()

	return int64(rm.totalMemory) - int64(memStats.Alloc) - rm.config.SafetyReserveMemory
}

// CanOpenExtraPage 当前资源是否允许再开一个页面(联系方式挖掘前咨询)
// 返回canOpen和不允许时的原因
func (rm *ResourceMonitor) CanOpenExtraPage() (canOpen bool, reason string) {
	available := rm.availableMemory()
	if available < rm.config.SafetyThreshold {
		availableMB := available / (1024 * 1024)
		log.Warn().Msgf("可用内存不足(当前%dMB),跳过额外页面", availableMB)
		return false, fmt.Sprintf("内存不足(当前%dMB)", availableMB)
	}

	if rm.config.CPULoadThreshold < 200 {
		rm.cpuUsageMu.RLock()
		cpuUsage := rm.lastCPUUsage
		rm.cpuUsageMu.RUnlock()

		if cpuUsage > float64(rm.config.CPULoadThreshold) {
			return false, fmt.Sprintf("CPU负载过高(当前%.1f%%)", cpuUsage)
		}
	}

	return true, ""
}

// ShouldRestartBrowser 内存是否紧张到值得重启浏览器释放资源
func (rm *ResourceMonitor) ShouldRestartBrowser() bool {
	availableMB := rm.availableMemory() / (1024 * 1024)
	if availableMB < 200 {
		log.Error().Msgf("内存紧急状态(当前%dMB),建议重启浏览器", availableMB)
		return true
	}
	return false
}

// MemoryPressure 当前内存压力等级: normal / warning / critical / emergency
func (rm *ResourceMonitor) MemoryPressure() string {
	availableMB := rm.availableMemory() / (1024 * 1024)
	switch {
	case availableMB < 200:
		return "emergency"
	case availableMB < 300:
		return "critical"
	case availableMB < 500:
		return "warning"
	default:
		return "normal"
	}
}
