package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/betbot/polyorder/clob/trade"
	"github.com/betbot/polyorder/clob/types"
	"github.com/betbot/polyorder/pkg/config"
	"github.com/betbot/polyorder/pkg/logger"
)

// inspect 是诊断工具：查看授权状态、开放订单、订单簿和余额，
// 不发送任何交易或订单。
func main() {
	var (
		configPath = flag.String("config", "", "配置文件路径（YAML）")
		allowances = flag.Bool("allowances", false, "检查链上授权状态")
		orders     = flag.Bool("orders", false, "列出开放订单")
		balance    = flag.Bool("balance", false, "查询撮合服务侧余额与授权")
		book       = flag.String("book", "", "查看指定 token 的订单簿")
		timeout    = flag.Duration("timeout", 30*time.Second, "整体超时")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Println("未找到 .env 文件, 使用系统环境变量")
	}

	if *configPath != "" {
		config.SetConfigPath(*configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithField("cmd", "inspect")

	pipeline, err := trade.NewPipeline(cfg, nil, log)
	if err != nil {
		log.Fatalf("组装管线失败: %v", err)
	}
	c := pipeline.Client()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch {
	case *allowances:
		result, err := pipeline.CheckAllowances(ctx)
		if err != nil {
			log.Fatalf("检查授权失败: %v", err)
		}
		printJSON(result)

	case *orders:
		if _, err := pipeline.EnsureCredentials(ctx); err != nil {
			log.Fatalf("获取凭证失败: %v", err)
		}
		open, err := c.GetOpenOrders(ctx, nil)
		if err != nil {
			log.Fatalf("查询开放订单失败: %v", err)
		}
		printJSON(open)

	case *balance:
		if _, err := pipeline.EnsureCredentials(ctx); err != nil {
			log.Fatalf("获取凭证失败: %v", err)
		}
		resp, err := c.GetBalanceAllowance(ctx, &types.BalanceAllowanceParams{
			AssetType: types.AssetTypeCollateral,
		})
		if err != nil {
			log.Fatalf("查询余额失败: %v", err)
		}
		printJSON(resp)

	case *book != "":
		summary, err := c.GetOrderBook(ctx, *book)
		if err != nil {
			log.Fatalf("查询订单簿失败: %v", err)
		}
		printJSON(summary)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "序列化失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
