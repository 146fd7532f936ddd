package config

import (
	"encoding/xml"
	"fmt"
	"os"
)

var MainRouter string
var DeviceName string
var Precision int
var ClickTolerance float64
var HandleTolerance float64
var PingSeconds int
var MainConfig Config

const (
	DefaultRouter          = "0.0.0.0:8426"
	DefaultPrecision       = 9
	DefaultClickTolerance  = 1e-9
	DefaultHandleTolerance = 25.0 // 控制点拾取距离，单位为墨卡托米
	DefaultPingSeconds     = 30
)

type Config struct {
	XMLName         xml.Name `xml:"config"`
	MainRouter      string   `xml:"MainRouter"`
	DeviceName      string   `xml:"DeviceName"`
	Precision       int      `xml:"precision"`
	ClickTolerance  float64  `xml:"clicktolerance"`
	HandleTolerance float64  `xml:"handletolerance"`
	PingSeconds     int      `xml:"pingseconds"`
}

func init() {
	apply(Config{})
	if err := LoadConfig("config.xml"); err != nil {
		fmt.Println("Error  loading  config:", err)
	}
}

// LoadConfig 读取XML配置，未填写的字段使用默认值
func LoadConfig(path string) error {
	xmlFile, err := os.Open(path)
	if err != nil {
		return err
	}
	defer xmlFile.Close()

	var c Config
	xmlDecoder := xml.NewDecoder(xmlFile)
	if err := xmlDecoder.Decode(&c); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	apply(c)
	return nil
}

func apply(c Config) {
	if c.MainRouter == "" {
		c.MainRouter = DefaultRouter
	}
	if c.Precision <= 0 {
		c.Precision = DefaultPrecision
	}
	if c.ClickTolerance <= 0 {
		c.ClickTolerance = DefaultClickTolerance
	}
	if c.HandleTolerance <= 0 {
		c.HandleTolerance = DefaultHandleTolerance
	}
	if c.PingSeconds <= 0 {
		c.PingSeconds = DefaultPingSeconds
	}
	MainConfig = c
	MainRouter = c.MainRouter
	DeviceName = c.DeviceName
	Precision = c.Precision
	ClickTolerance = c.ClickTolerance
	HandleTolerance = c.HandleTolerance
	PingSeconds = c.PingSeconds
}
