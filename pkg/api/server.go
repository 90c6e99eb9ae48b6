// Package api provides the REST API server for fcbtool
package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/james-see/fcbtool/pkg/converter"
	"github.com/james-see/fcbtool/pkg/converter/devices"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title fcbtool API
// @version 1.0
// @description API for converting Behringer FCB1010 SysEx dumps to and from CSV, JSON and MIDI
// @host localhost:8080
// @BasePath /api/v1

// Options configures the server
type Options struct {
	// Controller2Columns is the default CSV controller layout,
	// overridable per request with ?cc2_columns=true|false
	Controller2Columns bool
	Logger             *slog.Logger
}

type server struct {
	opts Options
}

// NewRouter builds the gin engine with all routes
func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &server{opts: opts}

	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/convert/syx2csv", s.handleSyxToCSV)
		v1.POST("/convert/csv2syx", s.handleCSVToSyx)
		v1.POST("/convert/syx2json", s.handleSyxToJSON)
		v1.POST("/convert/json2syx", s.handleJSONToSyx)
		v1.POST("/convert/csv2json", s.handleCSVToJSON)
		v1.POST("/convert/json2csv", s.handleJSONToCSV)
		v1.POST("/preview", s.handlePreview)
		v1.GET("/config/default", defaultConfig)
		v1.GET("/formats", listFormats)
		v1.GET("/devices", listDevices)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// StartServer starts the API server on the specified port
func StartServer(port int, opts Options) error {
	r := NewRouter(opts)
	if opts.Logger != nil {
		opts.Logger.Info("api server listening", "port", port)
	}
	return r.Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "fcbtool",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns a list of supported file formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     []string{"syx", "csv", "json", "midi"},
		"conversions": converter.GetSupportedConversions(),
	})
}

// listDevices godoc
// @Summary List supported devices
// @Description Returns a list of supported Behringer devices
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]map[string]string
// @Router /api/v1/devices [get]
func listDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"devices": []map[string]string{
			{"id": "fcb1010", "name": devices.NewFCB1010().Name(), "description": "MIDI foot controller, 100 presets"},
		},
	})
}

// defaultConfig godoc
// @Summary Factory configuration
// @Description Returns the factory default configuration as JSON
// @Tags info
// @Produce json
// @Success 200 {object} converter.Config
// @Router /api/v1/config/default [get]
func defaultConfig(c *gin.Context) {
	c.JSON(http.StatusOK, converter.NewConfig())
}

// handleSyxToCSV godoc
// @Summary Convert .syx to .csv
// @Description Upload an FCB1010 SysEx dump and receive a CSV table
// @Tags convert
// @Accept multipart/form-data
// @Produce text/csv
// @Param file formData file true "SysEx dump to convert"
// @Param cc2_columns query bool false "Map columns 15-17 to controller 2"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/syx2csv [post]
func (s *server) handleSyxToCSV(c *gin.Context) {
	s.handleConversion(c, converter.FormatSyx, converter.FormatCSV)
}

// handleCSVToSyx godoc
// @Summary Convert .csv to .syx
// @Description Upload a CSV table and receive an FCB1010 SysEx dump
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "CSV table to convert"
// @Param cc2_columns query bool false "Map columns 15-17 to controller 2"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/csv2syx [post]
func (s *server) handleCSVToSyx(c *gin.Context) {
	s.handleConversion(c, converter.FormatCSV, converter.FormatSyx)
}

// handleSyxToJSON godoc
// @Summary Convert .syx to JSON
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "SysEx dump to convert"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/syx2json [post]
func (s *server) handleSyxToJSON(c *gin.Context) {
	s.handleConversion(c, converter.FormatSyx, converter.FormatJSON)
}

// handleJSONToSyx godoc
// @Summary Convert JSON to .syx
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "JSON configuration to convert"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/json2syx [post]
func (s *server) handleJSONToSyx(c *gin.Context) {
	s.handleConversion(c, converter.FormatJSON, converter.FormatSyx)
}

// handleCSVToJSON godoc
// @Summary Convert .csv to JSON
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV table to convert"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/csv2json [post]
func (s *server) handleCSVToJSON(c *gin.Context) {
	s.handleConversion(c, converter.FormatCSV, converter.FormatJSON)
}

// handleJSONToCSV godoc
// @Summary Convert JSON to .csv
// @Tags convert
// @Accept multipart/form-data
// @Produce text/csv
// @Param file formData file true "JSON configuration to convert"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/json2csv [post]
func (s *server) handleJSONToCSV(c *gin.Context) {
	s.handleConversion(c, converter.FormatJSON, converter.FormatCSV)
}

// handlePreview godoc
// @Summary Render a preset as MIDI
// @Description Upload a .syx, .csv or .json configuration and receive a MIDI file of one preset
// @Tags convert
// @Accept multipart/form-data
// @Produce audio/midi
// @Param file formData file true "Configuration file"
// @Param bank query int false "Bank 1-10 (default 1)"
// @Param slot query int false "Slot 1-10 (default 1)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/preview [post]
func (s *server) handlePreview(c *gin.Context) {
	bank, err1 := strconv.Atoi(c.DefaultQuery("bank", "1"))
	slot, err2 := strconv.Atoi(c.DefaultQuery("slot", "1"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bank and slot must be integers"})
		return
	}
	index, err := converter.PresetIndex(bank, slot)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, header, ok := readUpload(c)
	if !ok {
		return
	}
	from := converter.DetectFormat(header)
	if from == converter.FormatUnknown {
		from = converter.DetectFormatFromContent(data)
	}

	conv := s.newConverter(c)
	s.warnLayout(c, conv, header, from)
	conv.PreviewPreset = index
	result, err := conv.Convert(data, from, converter.FormatMIDI)
	if err != nil {
		s.opts.Logger.Warn("preview failed", "file", header, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=preset-%d-%d.mid", bank, slot))
	c.Data(http.StatusOK, "audio/midi", result)
}

func (s *server) newConverter(c *gin.Context) *converter.Converter {
	conv := converter.New(devices.NewFCB1010())
	conv.CSV.Controller2Columns = s.opts.Controller2Columns
	if v, ok := c.GetQuery("cc2_columns"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			conv.CSV.Controller2Columns = b
		}
	}
	return conv
}

// warnLayout flags requests that read or write a table with columns 15-17
// mapped to controller 2
func (s *server) warnLayout(c *gin.Context, conv *converter.Converter, filename string, formats ...converter.Format) {
	if !conv.CSV.Controller2Columns {
		return
	}
	for _, f := range formats {
		if f == converter.FormatCSV {
			s.opts.Logger.Warn(converter.Controller2Warning, "file", filename)
			c.Header("Warning", fmt.Sprintf("299 fcbtool %q", converter.Controller2Warning))
			return
		}
	}
}

// readUpload returns the uploaded file's content and name, writing an error
// response when there is none
func readUpload(c *gin.Context) ([]byte, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}
	return data, header.Filename, true
}

var contentTypes = map[converter.Format]string{
	converter.FormatSyx:  "application/octet-stream",
	converter.FormatCSV:  "text/csv",
	converter.FormatJSON: "application/json",
	converter.FormatMIDI: "audio/midi",
}

var extensions = map[converter.Format]string{
	converter.FormatSyx:  ".syx",
	converter.FormatCSV:  ".csv",
	converter.FormatJSON: ".json",
	converter.FormatMIDI: ".mid",
}

func (s *server) handleConversion(c *gin.Context, from, to converter.Format) {
	data, filename, ok := readUpload(c)
	if !ok {
		return
	}

	conv := s.newConverter(c)
	s.warnLayout(c, conv, filename, from, to)
	result, err := conv.Convert(data, from, to)
	if err != nil {
		s.opts.Logger.Warn("conversion failed", "from", from, "to", to, "file", filename, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outputName := "converted" + extensions[to]
	if base := strings.TrimSuffix(filename, "."+string(from)); base != "" && base != filename {
		outputName = base + extensions[to]
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName))
	c.Data(http.StatusOK, contentTypes[to], result)
}
