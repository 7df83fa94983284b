package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"turtle_bot/internal/backtest"
	"turtle_bot/internal/modules/config"
	"turtle_bot/pkg/logger"
)

func main() {
	var (
		cfgPath = flag.String("config", "configs/values_local.yaml", "конфиг с параметрами стратегии")
		file    = flag.String("file", "configs/backtest_sample.yaml", "yaml-фикстура или raw klines .json")
		fill    = flag.Bool("fill", true, "исполнять интенты по close и возвращать балансы в движок")
		verbose = flag.Bool("v", false, "печатать каждый интент")
	)
	flag.Parse()

	if err := logger.Init(logger.Config{Level: "info"}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.SetServiceName("turtle_backtest")

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("config: %v", err)
	}

	f, err := backtest.LoadFixture(*file, backtest.Fixture{
		Symbol: cfg.Symbol,
		USDT:   cfg.Balances.USDT,
		BTC:    cfg.Balances.BTC,
	})
	if err != nil {
		logger.Fatal("fixture: %v", err)
	}

	sc := cfg.StrategyConfig()
	sc.Period = 0 // период берём из самой фикстуры
	rep, err := backtest.Replay(sc, f, *fill)
	if err != nil {
		logger.Fatal("replay: %v", err)
	}

	if *verbose {
		for _, in := range rep.Intents {
			fmt.Printf("%s  %s\n", in.Time().UTC().Format(time.RFC3339), in)
		}
	}
	fmt.Printf("ticks=%d skipped=%d intents=%d\n", rep.Ticks, rep.Skipped, len(rep.Intents))
	fmt.Printf("start=%.2f equity=%.2f return=%.2f%%\n", rep.StartAsset, rep.Equity, rep.Return()*100)
	fmt.Println(rep.Final.Text())
}
