package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/tools/imports"

	"github.com/donutnomad/litegen/plugin"
)

// DevOptions dev 命令选项
type DevOptions struct {
	Patterns []string      // 监听的路径模式
	Verbose  bool          // 详细输出
	Output   string        // 默认输出路径
	Debounce time.Duration // 防抖动时间
}

// devRunner 监听源文件变化并重新生成
//
// 存储接口与实体可以位于不同的包，只重新生成变化的包会丢失其他包中的实体，
// 所以每次触发都按完整的 Patterns 运行，防抖动也是全局的。
type devRunner struct {
	opts     *DevOptions
	registry *plugin.Registry
	watcher  *fsnotify.Watcher
	scanner  *plugin.Scanner
	ctx      context.Context

	mu      sync.Mutex
	timer   *time.Timer
	changed map[string]bool // 本轮防抖动期间变化的文件
}

// runDev 启动开发模式
func runDev(cfg *Config, args []string) {
	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Patterns
	}

	registry := plugin.Global()
	if len(registry.Generators()) == 0 {
		errorColor.Fprintln(os.Stderr, "错误: 没有已注册的生成器")
		os.Exit(1)
	}

	err := dev(&DevOptions{
		Patterns: patterns,
		Verbose:  cfg.Verbose,
		Output:   cfg.Output,
		Debounce: cfg.Debounce,
	})
	if err != nil {
		errorColor.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func dev(opts *DevOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	registry := plugin.Global()
	r := &devRunner{
		opts:     opts,
		registry: registry,
		watcher:  watcher,
		scanner:  plugin.NewScanner(plugin.WithAnnotationFilter(registry.Annotations()...)),
		ctx:      ctx,
		changed:  make(map[string]bool),
	}
	defer r.stopTimer()

	dirs, err := collectWatchDirs(opts.Patterns)
	if err != nil {
		return fmt.Errorf("收集监听目录失败: %w", err)
	}
	if len(dirs) == 0 {
		return fmt.Errorf("没有找到需要监听的目录")
	}
	for _, dir := range dirs {
		if err := r.watch(dir); err != nil {
			return err
		}
	}

	// 启动时先完整生成一次
	r.generate()

	fmt.Printf("开发模式已启动，监听 %d 个目录（防抖动 %v），按 Ctrl+C 退出\n\n", len(dirs), opts.Debounce)
	err = r.loop()
	fmt.Println("\n正在退出...")
	return err
}

func (r *devRunner) watch(dir string) error {
	if err := r.watcher.Add(dir); err != nil {
		return fmt.Errorf("添加监听目录失败 %s: %w", dir, err)
	}
	if r.opts.Verbose {
		fmt.Printf("监听目录: %s\n", dir)
	}
	return nil
}

func (r *devRunner) loop() error {
	for {
		select {
		case <-r.ctx.Done():
			return nil
		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			r.handleEvent(event)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			warnColor.Printf("监听错误: %v\n", err)
		}
	}
}

func (r *devRunner) handleEvent(event fsnotify.Event) {
	path := event.Name

	// 新建的目录需要加入监听
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !skipDir(info.Name()) {
				if err := r.watch(path); err != nil {
					warnColor.Println(err)
				}
			}
			return
		}
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if !strings.HasSuffix(path, ".go") || isGeneratedFile(path) {
		return
	}

	// 删除或重命名的文件无法再检查内容，直接触发
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
		matched, err := r.scanner.QuickMatchFile(path)
		if err != nil || !matched {
			if r.opts.Verbose && err == nil {
				fmt.Printf("跳过文件（无注解）: %s\n", path)
			}
			return
		}
		if err := checkSyntax(path); err != nil {
			warnColor.Printf("语法错误 %s: %v\n", path, err)
			return
		}
	}

	if r.opts.Verbose {
		fmt.Printf("检测到文件变化: %s (%s)\n", path, event.Op)
	}
	r.schedule(path)
}

// schedule 防抖动: 最后一次变化 Debounce 之后才生成
func (r *devRunner) schedule(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.changed[path] = true
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.opts.Debounce, func() {
		if r.ctx.Err() != nil {
			return
		}
		r.mu.Lock()
		files := make([]string, 0, len(r.changed))
		for f := range r.changed {
			files = append(files, f)
		}
		clear(r.changed)
		r.mu.Unlock()

		slices.Sort(files)
		if r.opts.Verbose {
			fmt.Printf("触发代码生成: %s\n", strings.Join(files, ", "))
		}
		r.generate()
	})
}

func (r *devRunner) stopTimer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
}

func (r *devRunner) generate() {
	stats, err := plugin.RunWithOptionsAndStats(r.ctx, &plugin.RunOptions{
		Registry: r.registry,
		Patterns: r.opts.Patterns,
		Verbose:  r.opts.Verbose,
		Output:   r.opts.Output,
	})
	if err != nil {
		// 单元错误不影响其他文件，继续监听
		printErrors(err)
	}
	if stats != nil && stats.FileCount > 0 {
		okColor.Printf("生成完成: %d 个文件 (耗时: %v)\n", stats.FileCount, stats.TotalDuration)
	}
}

// checkSyntax 检查文件语法，保存到一半的文件不触发生成
func checkSyntax(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = imports.Process(path, content, &imports.Options{
		Fragment:   true,
		AllErrors:  true,
		Comments:   true,
		FormatOnly: true,
	})
	return err
}

// collectWatchDirs 收集所有需要监听的目录，结果已去重
func collectWatchDirs(patterns []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		base := strings.TrimSuffix(pattern, "/...")
		if base == "" {
			base = "."
		}

		absDir, err := filepath.Abs(base)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absDir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			// 单个文件模式监听其所在目录
			add(filepath.Dir(absDir))
			continue
		}
		if !recursive {
			add(absDir)
			continue
		}

		err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != absDir && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return dirs, nil
}

// skipDir 与扫描器一致: 隐藏目录、下划线开头的目录、vendor 与 testdata 不监听
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
		name == "vendor" || name == "testdata"
}

// isGeneratedFile 测试文件和默认输出文件不触发生成
func isGeneratedFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "_test.go") ||
		strings.HasSuffix(base, "_mapper.go") ||
		strings.HasSuffix(base, "_storage.go") ||
		strings.HasSuffix(base, "_mock.go")
}
