package main

import (
	"flag"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/tarm/serial"

	"github.com/dltscontrol/dltscan/bridge"
	"github.com/dltscontrol/dltscan/dlts"
	"github.com/dltscontrol/dltscan/scan"
)

func main() {
	log.SetFlags(log.Lshortfile)

	configPath := flag.String("config", "dltscan.toml", "Path to the TOML config file.")
	port := flag.String("port", "", "Serial port path (overrides config).")
	bridgeURL := flag.String("bridge", "", "Websocket URL of a serial bridge to use instead of a local port.")
	addr := flag.String("addr", "", "Address to bind the dltscan server to (overrides config).")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *port != "" {
		cfg.Serial.Port = *port
	}
	if *bridgeURL != "" {
		cfg.Bridge.URL = *bridgeURL
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	var rw io.ReadWriter
	if cfg.Bridge.URL != "" {
		rw = bridge.NewClient(cfg.Bridge.URL, cfg.Bridge.Port)
	} else {
		sp, err := serial.OpenPort(&serial.Config{
			Name:        cfg.Serial.Port,
			Baud:        cfg.Serial.Baud,
			ReadTimeout: time.Duration(cfg.Serial.TimeoutMS) * time.Millisecond,
		})
		if err != nil {
			log.Fatal(err)
		}
		rw = sp
	}

	conn := dlts.NewConn(rw)
	defer conn.Close()

	protocols := map[string]scan.Protocol{
		scan.Parallel.Name:   scan.Parallel,
		scan.Current.Name:    scan.Current,
		scan.LatchUp.Name:    scan.LatchUp,
		scan.Reflection.Name: scan.Reflection,
	}

	api := newAPI(conn, protocols, cfg.DataDir, cfg.UIDir)

	err = http.ListenAndServe(cfg.Addr, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		log.Printf("%s %s - %s", req.Method, req.URL.Path, req.RemoteAddr)
		api.ServeHTTP(w, req)
	}))
	if err != nil {
		log.Fatal(err)
	}
}
