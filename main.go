package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

var version = "v1.0.0"
var commit = ""
var inputDir = ""
var outputDir = ""
var cmdFile = ""
var adminFile = ""
var attackStart = ""
var rules = ""
var dedup = false
var extended = false
var xlsx = false
var encodingName = "auto"
var workers = 0
var syslogDst = ""
var mqttDst = ""
var mqttTopic = "twgtdetect"
var mqttUser = ""
var mqttPassword = ""
var kafkaDst = ""
var kafkaTopic = "twgtdetect"
var debug = false
var cpuprofile string
var memprofile string

// time allowed to deliver queued alerts at exit
const flushTimeout = 30 * time.Second

func parseFlags() {
	_ = godotenv.Load()
	flag.StringVar(&inputDir, "input", "", "input dir of exported security event log csv files")
	flag.StringVar(&outputDir, "output", "", "output dir")
	flag.StringVar(&cmdFile, "cmd", "", "suspicious command list file")
	flag.StringVar(&adminFile, "admin", "", "admin account white list file")
	flag.StringVar(&attackStart, "attack", "", "attack start time 'yyyy/MM/dd HH:mm:ss'")
	flag.StringVar(&rules, "rules", "", "enabled rules notgt,adminlist,adminshare,malcmd,psexec (default all)")
	flag.BoolVar(&dedup, "dedup", false, "collapse identical events")
	flag.BoolVar(&extended, "extended", false, "add objectname column")
	flag.BoolVar(&xlsx, "xlsx", false, "write result.xlsx")
	flag.StringVar(&encodingName, "encoding", "auto", "input encoding auto|utf-8|sjis|gbk")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "parallel workers")
	flag.StringVar(&syslogDst, "syslog", "", "syslog destnation list")
	flag.StringVar(&mqttDst, "mqtt", "", "mqtt broker")
	flag.StringVar(&mqttTopic, "mqttTopic", "twgtdetect", "mqtt topic")
	flag.StringVar(&mqttUser, "mqttUser", "", "mqtt user")
	flag.StringVar(&mqttPassword, "mqttPassword", "", "mqtt password")
	flag.StringVar(&kafkaDst, "kafka", "", "kafka broker list")
	flag.StringVar(&kafkaTopic, "kafkaTopic", "twgtdetect", "kafka topic")
	flag.BoolVar(&debug, "debug", false, "debug log")
	flag.StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	flag.StringVar(&memprofile, "memprofile", "", "write memory profile to `file`")
	flag.Usage = usage
	flag.VisitAll(func(f *flag.Flag) {
		if s := os.Getenv("TWGTDETECT_" + strings.ToUpper(f.Name)); s != "" {
			f.Value.Set(s)
		}
	})
	flag.Parse()
	setPositionalArgs(flag.Args())
}

// setPositionalArgs accepts {input} {output} {cmd list} ({admin list|attack time}).
func setPositionalArgs(args []string) {
	for i, a := range args {
		switch i {
		case 0:
			inputDir = a
		case 1:
			outputDir = a
		case 2:
			cmdFile = a
		case 3:
			if _, err := time.ParseInLocation(timeLayout, a, time.Local); err == nil {
				attackStart = a
			} else {
				adminFile = a
			}
		}
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage")
	fmt.Fprintln(os.Stderr, "twgtdetect -input {input dir} -output {output dir} -cmd {suspicious command list file} [-admin {admin list}] [-attack {date when attack starts}]")
	fmt.Fprintln(os.Stderr, "twgtdetect {input dir} {output dir} {suspicious command list file} ({admin list}|{date when attack starts})")
	fmt.Fprintln(os.Stderr, "If you specify {date when attack starts}, logs recorded after it are marked as test data. Date should be 'yyyy/MM/dd HH:mm:ss' format.")
	flag.PrintDefaults()
}

type logWriter struct {
}

func (writer logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprint(os.Stderr, time.Now().Format("2006-01-02T15:04:05.999 ")+string(bytes))
}

// loadList reads one entry per line, skipping blank lines and # comments.
func loadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ret := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		l := strings.TrimSpace(scanner.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		ret = append(ret, l)
	}
	return ret, scanner.Err()
}

// loadConfig checks the options and reads the auxiliary lists.
func loadConfig() (*engineConfig, error) {
	if inputDir == "" || outputDir == "" || cmdFile == "" {
		return nil, fmt.Errorf("input, output and cmd are required")
	}
	cfg := &engineConfig{
		Dedup:    dedup,
		Encoding: encodingName,
		Workers:  workers,
	}
	var err error
	if cfg.SuspiciousCmd, err = loadList(cmdFile); err != nil {
		return nil, fmt.Errorf("suspicious command list: %w", err)
	}
	if adminFile != "" {
		if cfg.AdminWhiteList, err = loadList(adminFile); err != nil {
			return nil, fmt.Errorf("admin list: %w", err)
		}
	}
	if attackStart != "" {
		if cfg.AttackStart, err = time.ParseInLocation(timeLayout, attackStart, time.Local); err != nil {
			return nil, fmt.Errorf("attack start time: %w", err)
		}
	}
	if rules != "" {
		cfg.Rules = strings.Split(rules, ",")
	}
	return cfg, nil
}

func newSinks(runID string) []alertSink {
	sinks := []alertSink{}
	if syslogDst != "" {
		if s, err := newSyslogSink(syslogDst); err != nil {
			log.Printf("syslog err=%v", err)
		} else {
			sinks = append(sinks, s)
		}
	}
	if mqttDst != "" {
		if s, err := newMQTTSink(mqttDst, "twgtdetect-"+runID, mqttUser, mqttPassword, mqttTopic); err != nil {
			log.Printf("mqtt err=%v", err)
		} else {
			sinks = append(sinks, s)
		}
	}
	if kafkaDst != "" {
		sinks = append(sinks, newKafkaSink(kafkaDst, kafkaTopic))
	}
	return sinks
}

func main() {
	parseFlags()
	log.SetFlags(0)
	log.SetOutput(new(logWriter))
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(1)
	}
	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}
	log.Printf("version=%s", fmt.Sprintf("%s(%s)", version, commit))
	engine, err := NewEngine(*cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(1)
	}
	log.Printf("run=%s rules=%s commands=%d", engine.RunID, strings.Join(engine.det.ruleNames(), ","), len(cfg.SuspiciousCmd))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	n := newNotifier(engine.RunID, newSinks(engine.RunID)...)
	n.start(ctx)
	sendMonitor(n)
	if err := removePrevResults(outputDir); err != nil {
		log.Printf("remove previous results err=%v", err)
	}
	if err := engine.Run(ctx, inputDir); err != nil {
		log.Fatalf("run err=%v", err)
	}
	outputs := []string{resultCSV}
	if err := writeResultCSV(filepath.Join(outputDir, resultCSV), engine.Records(), extended); err != nil {
		log.Fatalf("write result err=%v", err)
	}
	if xlsx {
		if err := writeResultXLSX(filepath.Join(outputDir, resultXLSX), engine.Records(), engine.Infected(), extended); err != nil {
			log.Fatalf("write xlsx err=%v", err)
		}
		outputs = append(outputs, resultXLSX)
	}
	if err := writeManifest(outputDir, engine.RunID, outputs); err != nil {
		log.Printf("write manifest err=%v", err)
	}
	log.Println(engine.Stats.String())
	notifyResults(n, engine)
	sendMonitor(n)
	n.shutdown(flushTimeout)
	printDetectionRate(os.Stdout, engine)
	if memprofile != "" {
		f, err := os.Create(memprofile)
		if err != nil {
			log.Fatalf("could not create memory profile: %v", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatalf("could not write memory profile:%v", err)
		}
	}
}
