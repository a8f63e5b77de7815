package handler

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/service"
	"github.com/tradex-organiztion/tradex-web-sub000/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var supportedResolutions = []string{"1", "3", "5", "15", "30", "60", "120", "240", "360", "720", "1D", "1W", "1M"}

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// DatafeedHandler exposes the charting widget's datafeed contract over HTTP
// and WebSocket
type DatafeedHandler struct {
	datafeed *service.DatafeedService
	manager  *service.ExchangeManager
	logger   *zap.Logger
}

// NewDatafeedHandler creates a new datafeed handler
func NewDatafeedHandler(datafeed *service.DatafeedService, manager *service.ExchangeManager, logger *zap.Logger) *DatafeedHandler {
	return &DatafeedHandler{
		datafeed: datafeed,
		manager:  manager,
		logger:   logger,
	}
}

// GetConfig handles the widget's onReady call
// GET /api/v1/datafeed/config
func (h *DatafeedHandler) GetConfig(c *gin.Context) {
	exchanges := make([]gin.H, 0, len(model.SupportedExchanges))
	for _, ex := range model.SupportedExchanges {
		exchanges = append(exchanges, gin.H{"value": string(ex), "name": string(ex), "desc": string(ex)})
	}

	c.JSON(http.StatusOK, gin.H{
		"supported_resolutions":    supportedResolutions,
		"supports_search":          true,
		"supports_group_request":   false,
		"supports_marks":           false,
		"supports_timescale_marks": false,
		"exchanges":                exchanges,
	})
}

// SearchSymbols handles symbol search with ranking and pagination
// GET /api/v1/datafeed/search
func (h *DatafeedHandler) SearchSymbols(c *gin.Context) {
	opts := service.SearchOptions{}
	opts.Offset, opts.Limit = utils.ParseOffsetLimit(c, 30, 200)

	if exchangeStr := c.Query("exchange"); exchangeStr != "" {
		exchange := model.Exchange(exchangeStr)
		opts.Exchange = &exchange
	}
	if marketStr := c.Query("market"); marketStr != "" {
		market := model.MarketType(marketStr)
		opts.MarketType = &market
	}

	result, err := h.manager.SearchSymbols(c.Request.Context(), c.Query("query"), opts)
	if err != nil {
		h.logger.Error("Symbol search failed", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusBadGateway, "Symbol search failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ResolveSymbol handles the widget's resolveSymbol call
// GET /api/v1/datafeed/symbols
func (h *DatafeedHandler) ResolveSymbol(c *gin.Context) {
	fullName := c.Query("symbol")
	if fullName == "" {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Symbol is required")
		return
	}

	info, err := h.manager.ResolveSymbolInfo(c.Request.Context(), fullName)
	if err != nil {
		h.logger.Warn("Symbol resolution failed",
			zap.String("symbol", fullName),
			zap.Error(err))
		utils.SendErrorResponse(c, http.StatusNotFound, "Symbol not found")
		return
	}

	c.JSON(http.StatusOK, info)
}

// GetHistory handles the widget's getBars call. Times arrive in epoch
// seconds per the datafeed contract; "no more data" is signaled with the
// explicit no_data status, distinct from an error.
// GET /api/v1/datafeed/history
func (h *DatafeedHandler) GetHistory(c *gin.Context) {
	fullName := c.Query("symbol")
	resolution := c.Query("resolution")
	if fullName == "" || resolution == "" {
		c.JSON(http.StatusOK, gin.H{"s": "error", "errmsg": "symbol and resolution are required"})
		return
	}

	from, _ := strconv.ParseInt(c.Query("from"), 10, 64)
	to, _ := strconv.ParseInt(c.Query("to"), 10, 64)
	countBack, _ := strconv.Atoi(c.DefaultQuery("countback", "0"))

	bars, noData, err := h.datafeed.GetBars(c.Request.Context(), fullName, resolution, from*1000, to*1000, countBack)
	if err != nil {
		h.logger.Error("History fetch failed",
			zap.String("symbol", fullName),
			zap.String("resolution", resolution),
			zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"s": "error", "errmsg": "failed to fetch history"})
		return
	}
	if noData {
		c.JSON(http.StatusOK, gin.H{"s": "no_data"})
		return
	}

	times := make([]int64, len(bars))
	opens := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, bar := range bars {
		times[i] = bar.OpenTime / 1000
		opens[i] = bar.Open
		highs[i] = bar.High
		lows[i] = bar.Low
		closes[i] = bar.Close
		volumes[i] = bar.Volume
	}

	c.JSON(http.StatusOK, gin.H{
		"s": "ok",
		"t": times,
		"o": opens,
		"h": highs,
		"l": lows,
		"c": closes,
		"v": volumes,
	})
}

// streamRequest is one client frame on the stream socket
type streamRequest struct {
	Type       string `json:"type"` // subscribe | unsubscribe
	ListenerID string `json:"listenerId"`
	Symbol     string `json:"symbol"`
	Resolution string `json:"resolution"`
}

// streamBar is one pushed live bar
type streamBar struct {
	Type       string      `json:"type"`
	ListenerID string      `json:"listenerId"`
	Bar        model.Kline `json:"bar"`
}

// Stream upgrades to a websocket and serves the widget's
// subscribeBars/unsubscribeBars contract: the client registers listeners by
// id, the server pushes synchronized bars per listener. Closing the socket
// tears down every listener it registered.
// GET /api/v1/datafeed/stream
func (h *DatafeedHandler) Stream(c *gin.Context) {
	conn, err := streamUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Stream upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	listeners := make(map[string]bool)

	defer func() {
		for listenerID := range listeners {
			h.datafeed.UnsubscribeBars(listenerID)
		}
	}()

	for {
		var req streamRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		switch req.Type {
		case "subscribe":
			if req.ListenerID == "" || req.Symbol == "" || req.Resolution == "" {
				continue
			}
			listenerID := req.ListenerID
			err := h.datafeed.SubscribeBars(req.Symbol, req.Resolution, listenerID, func(bar model.Kline) {
				writeMu.Lock()
				defer writeMu.Unlock()
				conn.WriteJSON(streamBar{Type: "bar", ListenerID: listenerID, Bar: bar})
			})
			if err != nil {
				h.logger.Warn("Bar subscription failed",
					zap.String("symbol", req.Symbol),
					zap.Error(err))
				continue
			}
			listeners[listenerID] = true

		case "unsubscribe":
			if listeners[req.ListenerID] {
				h.datafeed.UnsubscribeBars(req.ListenerID)
				delete(listeners, req.ListenerID)
			}
		}
	}
}
