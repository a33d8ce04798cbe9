package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polyorder/clob/trade"
	"github.com/betbot/polyorder/clob/types"
	"github.com/betbot/polyorder/pkg/config"
	"github.com/betbot/polyorder/pkg/logger"
	"github.com/betbot/polyorder/pkg/secretstore"
)

func main() {
	var (
		configPath = flag.String("config", "", "配置文件路径（YAML）")
		tokenID    = flag.String("token", "", "条件代币 ID")
		price      = flag.Float64("price", 0, "订单价格，(0,1) 开区间")
		size       = flag.Float64("size", 0, "订单数量")
		side       = flag.String("side", "BUY", "订单方向: BUY 或 SELL")
		orderType  = flag.String("type", "GTC", "订单类型: GTC/FOK/FAK/GTD")
		negRisk    = flag.Bool("neg-risk", false, "neg-risk 市场")
		timeout    = flag.Duration("timeout", 2*time.Minute, "整体超时")
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

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithField("cmd", "trade")

	if *tokenID == "" {
		log.Fatal("缺少 -token 参数")
	}
	s := types.Side(*side)
	if s != types.SideBuy && s != types.SideSell {
		log.Fatalf("无效的方向: %s", *side)
	}

	var store *secretstore.Store
	if cfg.CredentialDir != "" {
		key, err := secretstore.ParseKey(os.Getenv("CREDENTIAL_STORE_KEY"))
		if err != nil {
			log.Fatalf("解析凭证缓存密钥失败: %v", err)
		}
		store, err = secretstore.Open(secretstore.OpenOptions{
			Path:          cfg.CredentialDir,
			EncryptionKey: key,
		})
		if err != nil {
			log.Fatalf("打开凭证缓存失败: %v", err)
		}
		defer store.Close()
	}

	pipeline, err := trade.NewPipeline(cfg, store, log)
	if err != nil {
		log.Fatalf("组装下单管线失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := pipeline.PlaceOrder(ctx, &trade.PlaceOrderParams{
		TokenID:   *tokenID,
		Price:     *price,
		Size:      *size,
		Side:      s,
		OrderType: types.OrderType(*orderType),
		NegRisk:   *negRisk,
	})
	if err != nil {
		if types.IsKind(err, types.ErrSubmissionTimeout) {
			log.Errorf("提交超时, 结果未知, 请先用 inspect -orders 对账: %v", err)
		} else {
			log.Errorf("下单失败 [%s]: %v", types.KindOf(err), err)
		}
		os.Exit(1)
	}

	if result.DryRun {
		log.WithFields(logrus.Fields{
			"salt":        result.Salt,
			"makerAmount": result.MakerAmount,
			"takerAmount": result.TakerAmount,
		}).Info("纸交易完成, 未提交")
		return
	}

	log.WithFields(logrus.Fields{
		"orderID":     result.OrderID,
		"status":      result.Status,
		"makerAmount": result.MakerAmount,
		"takerAmount": result.TakerAmount,
	}).Info("下单成功")
}
