package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"

	"github.com/donutnomad/litegen/ormgen"
	"github.com/donutnomad/litegen/plugin"
)

func init() {
	plugin.MustRegister(ormgen.New())
}

var (
	verbose = flag.Bool("v", false, "详细输出")
	help    = flag.Bool("h", false, "显示帮助信息")
	output  = flag.String("output", "", "默认输出路径（支持模板变量 $FILE, $PACKAGE, $TYPE），为空时使用生成器默认值")
	check   = flag.Bool("check", false, "只检查生成文件是否最新，不写文件")
)

var (
	errorColor = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow)
	okColor    = color.New(color.FgGreen)
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}

	cfg, err := loadConfig(".")
	if err != nil {
		errorColor.Fprintf(os.Stderr, "读取配置失败: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	args := flag.Args()

	// 默认命令是 gen
	if len(args) == 0 {
		runGen(cfg, nil)
		return
	}

	switch args[0] {
	case "gen":
		runGen(cfg, args[1:])
	case "dev":
		runDev(cfg, args[1:])
	default:
		// 不是子命令，当作路径参数处理，执行 gen
		runGen(cfg, args)
	}
}

// applyFlags 命令行显式指定的参数覆盖配置
func applyFlags(cfg *Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Verbose = *verbose
		case "output":
			cfg.Output = *output
		case "check":
			cfg.Check = *check
		}
	})
}

func runGen(cfg *Config, args []string) {
	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Patterns
	}

	registry := plugin.Global()
	if len(registry.Generators()) == 0 {
		errorColor.Fprintln(os.Stderr, "错误: 没有已注册的生成器")
		os.Exit(1)
	}

	if cfg.Verbose {
		fmt.Printf("已注册 %d 个生成器:\n", len(registry.Generators()))
		for _, gen := range registry.Generators() {
			anns := lo.Map(gen.Annotations(), func(item string, index int) string {
				return "@" + item
			})
			fmt.Printf("  - %s (%s)\n", gen.Name(), strings.Join(anns, ","))
		}
		fmt.Println()
	}

	stats, err := plugin.RunWithOptionsAndStats(context.Background(), &plugin.RunOptions{
		Registry: registry,
		Patterns: patterns,
		Verbose:  cfg.Verbose,
		Output:   cfg.Output,
		Check:    cfg.Check,
	})
	if err != nil {
		printErrors(err)
	}

	if stats != nil && (stats.FileCount > 0 || cfg.Verbose) {
		verb := "生成"
		if cfg.Check {
			verb = "检查"
		}
		fmt.Printf("\n统计: 扫描 %d 个目标, %s %d 个文件\n", stats.TargetCount, verb, stats.FileCount)
		fmt.Printf("耗时: 扫描 %v, 生成 %v, 总计 %v\n", stats.ScanDuration, stats.GenerateDuration, stats.TotalDuration)
	}

	failed := err != nil
	if stats != nil && len(stats.StaleFiles) > 0 {
		warnColor.Fprintf(os.Stderr, "%d 个生成文件已过期，请重新运行 litegen:\n", len(stats.StaleFiles))
		for _, path := range stats.StaleFiles {
			warnColor.Fprintf(os.Stderr, "  %s\n", path)
		}
		failed = true
	}
	if failed {
		os.Exit(1)
	}
	if cfg.Check {
		okColor.Println("所有生成文件均为最新")
	}
}

// printErrors 逐条打印单元错误
func printErrors(err error) {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	for _, e := range errs {
		prefix := "错误"
		if errors.Is(e, plugin.ErrGenerationIO) {
			prefix = "写文件失败"
		}
		errorColor.Fprintf(os.Stderr, "%s: %v\n", prefix, e)
	}
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, `litegen - SQLite ORM 代码生成工具

用法:
  litegen [选项] [路径...]
  litegen gen [选项] [路径...]
  litegen dev [选项] [路径...]

命令:
  gen     执行代码生成（默认）
  dev     启动开发模式，监听文件变动自动生成

路径:
  支持 Go 包路径模式，如:
    ./...          递归扫描当前目录及子目录（默认）
    ./pkg/...      递归扫描指定目录
    ./models/...   递归扫描 models 目录

选项:
`)
	flag.PrintDefaults()

	registry := plugin.Global()
	if len(registry.Generators()) > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "\n支持的注解:\n")
		_, _ = fmt.Fprint(os.Stderr, plugin.FormatHelpText(registry))
	}

	_, _ = fmt.Fprintf(os.Stderr, `配置:
  当前目录下的 litegen.yaml（verbose, output, patterns, debounce, check），
  环境变量 LITEGEN_* 覆盖配置文件，命令行参数优先级最高

模板变量:
  $FILE     - 源文件名（不含 .go 后缀）
  $PACKAGE  - 包名
  $TYPE     - 类型名的 snake_case 形式

示例:
  litegen                                   扫描当前目录（默认 ./...）
  litegen -v ./models/...                   详细模式扫描 models 目录
  litegen -output '$TYPE_orm.go' ./...      所有实体与存储接口输出到同一命名规则的文件
  litegen -check ./...                      检查生成文件是否最新（CI 使用）
  litegen dev ./...                         开发模式，监听文件变动
`)
}
