package main

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/gorilla/mux"
	"github.com/jasonwbarnett/fileserver"

	"github.com/dltscontrol/dltscan/mesh"
	"github.com/dltscontrol/dltscan/scan"
)

type api struct {
	http.Handler

	conn      scan.CommandConn
	protocols map[string]scan.Protocol
	dataDir   string
	sse       *sse.Server

	mx      sync.Mutex
	current *scan.Scan
}

func newAPI(conn scan.CommandConn, protocols map[string]scan.Protocol, dataDir, uiDir string) *api {
	r := mux.NewRouter()

	a := &api{
		Handler:   r,
		conn:      conn,
		protocols: protocols,
		dataDir:   dataDir,
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(ioutil.Discard, "", 0),
		}),
	}

	r.HandleFunc("/api/scan", a.startScan).Methods("POST")
	r.HandleFunc("/api/scan/abort", a.abortScan).Methods("POST")
	r.HandleFunc("/api/scan/status", a.status).Methods("GET")
	r.HandleFunc("/api/scan/images", a.images).Methods("GET")

	r.PathPrefix("/events/").Handler(a.sse)
	r.PathPrefix("/data/").Handler(http.StripPrefix("/data", fileserver.New(http.Dir(dataDir))))
	r.PathPrefix("/").Handler(fileserver.New(http.Dir(uiDir)))

	return a
}

func (a *api) startScan(w http.ResponseWriter, req *http.Request) {
	proto, ok := a.protocols[req.FormValue("type")]
	if !ok {
		http.Error(w, "unknown scan type", http.StatusBadRequest)
		return
	}

	var err error
	parse := func(param string) uint16 {
		if err != nil {
			return 0
		}
		var v uint64
		v, err = strconv.ParseUint(req.FormValue(param), 10, 16)
		return uint16(v)
	}
	parseOpt := func(param string) *uint16 {
		if req.FormValue(param) == "" {
			return nil
		}
		v := parse(param)
		return &v
	}

	geom := scan.Geometry{
		XLow:  parse("xLow"),
		XHigh: parse("xHigh"),
		YLow:  parse("yLow"),
		YHigh: parse("yHigh"),
		XStep: parse("xStep"),
		YStep: parse("yStep"),
	}
	if req.FormValue("xDelay") != "" {
		geom.XDelay = parse("xDelay")
	}
	if req.FormValue("yDelay") != "" {
		geom.YDelay = parse("yDelay")
	}

	opts := scan.Options{
		LaserIntensity:      parseOpt("laserIntensity"),
		ZPosition:           parseOpt("zPosition"),
		XTilt:               parseOpt("xTilt"),
		LatchUpTurnOffDelay: parseOpt("latchUpTurnOffDelay"),
		AutoFocus:           req.FormValue("autoFocus") == "1",
	}
	if req.FormValue("positioningDelay") != "" {
		opts.PositioningDelay = time.Duration(parse("positioningDelay")) * time.Millisecond
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s, err := scan.New(proto, geom, opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.mx.Lock()
	if a.current != nil && !a.current.State().Terminal() {
		a.mx.Unlock()
		http.Error(w, "a scan is already running", http.StatusConflict)
		return
	}
	a.current = s
	a.mx.Unlock()

	go a.pumpProgress(s)
	go a.runScan(s)
}

func (a *api) runScan(s *scan.Scan) {
	err := s.Run(a.conn)
	if err != nil {
		log.Printf("ERROR: scan: %+v", err)
		return
	}

	images, err := s.Images()
	if err != nil {
		// aborted scans have no complete images to persist
		log.Printf("scan finished without images: %v", err)
		return
	}

	name := filepath.Join(a.dataDir, "images.json")
	os.MkdirAll(a.dataDir, 0755)
	f, err := os.Create(name)
	if err != nil {
		log.Printf("ERROR: create '%s': %+v", name, err)
		return
	}
	defer f.Close()
	err = json.NewEncoder(f).Encode(images)
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

func (a *api) pumpProgress(s *scan.Scan) {
	for p := range s.Progress() {
		data, err := json.Marshal(p)
		if err != nil {
			log.Printf("ERROR: marshal json: %+v", err)
			continue
		}
		a.sse.SendMessage("/events/scan", sse.SimpleMessage(string(data)))
	}
}

func (a *api) abortScan(w http.ResponseWriter, req *http.Request) {
	a.mx.Lock()
	s := a.current
	a.mx.Unlock()
	if s == nil || s.State().Terminal() {
		http.Error(w, "no scan running", http.StatusConflict)
		return
	}
	s.Abort()
}

func (a *api) status(w http.ResponseWriter, req *http.Request) {
	a.mx.Lock()
	s := a.current
	a.mx.Unlock()

	stat := struct {
		State   string `json:"state"`
		Scanned int    `json:"scanned"`
		Total   int    `json:"total"`
	}{State: scan.Idle.String()}

	if s != nil {
		stat.State = s.State().String()
		stat.Scanned = len(s.Records())
		stat.Total = s.Geometry().CellCount()
	}

	err := json.NewEncoder(w).Encode(stat)
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

func (a *api) images(w http.ResponseWriter, req *http.Request) {
	a.mx.Lock()
	s := a.current
	a.mx.Unlock()
	if s == nil {
		http.Error(w, "no scan", http.StatusNotFound)
		return
	}

	images, err := s.Images()
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	// optional interpolated rendering for display grids
	if req.FormValue("resampleCols") != "" {
		cols, err := strconv.Atoi(req.FormValue("resampleCols"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rows, err := strconv.Atoi(req.FormValue("resampleRows"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type resampled struct {
			Name   string      `json:"name"`
			Values [][]float64 `json:"values"`
		}
		out := make([]resampled, 0, len(images))
		for _, img := range images {
			values, err := mesh.Resample(img, cols, rows)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			out = append(out, resampled{Name: img.Name, Values: values})
		}
		err = json.NewEncoder(w).Encode(out)
		if err != nil {
			log.Println("ERROR: encode:", err)
		}
		return
	}

	err = json.NewEncoder(w).Encode(images)
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}
