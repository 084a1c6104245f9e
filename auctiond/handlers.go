package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/SanatSharma/auction-demo/auction"
	"github.com/SanatSharma/auction-demo/auctionapi"
	"github.com/SanatSharma/auction-demo/ledger"
)

// handleRequest dispatches a raw request payload on its "type" field and
// returns the response envelope. Every branch goes through the engine, which
// guarantees a rejected operation leaves auction state unchanged.
func (s *Server) handleRequest(payload []byte) any {
	var baseReq auctionapi.BaseRequest
	if err := json.Unmarshal(payload, &baseReq); err != nil {
		log.Printf("ERROR: Failed to decode base request: %v", err)
		return errorResponse("", fmt.Sprintf("Failed to decode request: %v", err))
	}

	log.Printf("INFO: Received request type: %s", baseReq.Type)

	switch baseReq.Type {
	case auctionapi.TypePing:
		return map[string]any{
			"type":      "pong",
			"message":   "auction server is healthy",
			"timestamp": time.Now().Unix(),
		}

	case auctionapi.TypeCreateAuction:
		var req auctionapi.CreateAuctionRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return errorResponse(baseReq.Type, fmt.Sprintf("Failed to decode create request: %v", err))
		}
		return s.handleCreate(req)

	case auctionapi.TypeSetupAuction:
		var req auctionapi.SetupAuctionRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return errorResponse(baseReq.Type, fmt.Sprintf("Failed to decode setup request: %v", err))
		}
		return s.handleSetup(req)

	case auctionapi.TypePlaceBid:
		var req auctionapi.PlaceBidRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return errorResponse(baseReq.Type, fmt.Sprintf("Failed to decode bid request: %v", err))
		}
		return s.handlePlaceBid(req)

	case auctionapi.TypeCloseAuction:
		var req auctionapi.CloseAuctionRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return errorResponse(baseReq.Type, fmt.Sprintf("Failed to decode close request: %v", err))
		}
		return s.handleClose(req)

	case auctionapi.TypeQueryBalance:
		var req auctionapi.QueryBalanceRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return errorResponse(baseReq.Type, fmt.Sprintf("Failed to decode balance request: %v", err))
		}
		return s.handleQueryBalance(req)

	case auctionapi.TypeQueryAuction:
		var req auctionapi.QueryAuctionRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return errorResponse(baseReq.Type, fmt.Sprintf("Failed to decode query request: %v", err))
		}
		return s.handleQuery(req)

	default:
		return errorResponse(baseReq.Type, fmt.Sprintf("Unknown request type: %s", baseReq.Type))
	}
}

func (s *Server) handleCreate(req auctionapi.CreateAuctionRequest) auctionapi.Response {
	params := auction.Parameters{
		Seller:          ledger.AccountID(req.Seller),
		AssetID:         ledger.AssetID(req.AssetID),
		AssetAmount:     req.AssetAmount,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		ReservePrice:    req.ReservePrice,
		MinBidIncrement: req.MinBidIncrement,
		RoyaltyPct:      req.RoyaltyPct,
		AssetCreator:    ledger.AccountID(req.AssetCreator),
	}

	handle, err := s.engine.CreateAuctionApp(params)
	if err != nil {
		log.Printf("ERROR: Create auction failed: %v", err)
		return errorResponse(req.Type, err.Error())
	}

	log.Printf("INFO: Created auction %s with escrow %s", handle.ID, handle.Escrow)
	return s.infoResponse(req.Type, handle.ID)
}

func (s *Server) handleSetup(req auctionapi.SetupAuctionRequest) auctionapi.Response {
	handle, resp, ok := s.resolveHandle(req.Type, req.AuctionID)
	if !ok {
		return resp
	}

	if err := s.engine.SetupAuctionApp(handle, ledger.AccountID(req.Funder), ledger.AccountID(req.AssetHolder)); err != nil {
		log.Printf("ERROR: Setup auction %s failed: %v", handle.ID, err)
		return errorResponse(req.Type, err.Error())
	}

	log.Printf("INFO: Auction %s funded by %s (asset from %s)", handle.ID, req.Funder, req.AssetHolder)
	return s.infoResponse(req.Type, handle.ID)
}

func (s *Server) handlePlaceBid(req auctionapi.PlaceBidRequest) auctionapi.Response {
	handle, resp, ok := s.resolveHandle(req.Type, req.AuctionID)
	if !ok {
		return resp
	}

	if err := s.engine.PlaceBid(handle, ledger.AccountID(req.Bidder), req.BidAmount); err != nil {
		log.Printf("ERROR: Bid on auction %s failed: %v", handle.ID, err)
		return errorResponse(req.Type, err.Error())
	}

	log.Printf("INFO: Auction %s: %s is the highest bidder at %s",
		handle.ID, req.Bidder, auctionapi.FormatAmount(req.BidAmount))
	return s.infoResponse(req.Type, handle.ID)
}

func (s *Server) handleClose(req auctionapi.CloseAuctionRequest) auctionapi.Response {
	handle, resp, ok := s.resolveHandle(req.Type, req.AuctionID)
	if !ok {
		return resp
	}

	if err := s.engine.CloseAuction(handle, ledger.AccountID(req.Caller)); err != nil {
		log.Printf("ERROR: Close auction %s failed: %v", handle.ID, err)
		return errorResponse(req.Type, err.Error())
	}

	log.Printf("INFO: Auction %s closed by %s", handle.ID, req.Caller)
	return s.infoResponse(req.Type, handle.ID)
}

func (s *Server) handleQuery(req auctionapi.QueryAuctionRequest) auctionapi.Response {
	id, err := uuid.Parse(req.AuctionID)
	if err != nil {
		return errorResponse(req.Type, fmt.Sprintf("invalid auction id %q: %v", req.AuctionID, err))
	}
	return s.infoResponse(req.Type, id)
}

func (s *Server) handleQueryBalance(req auctionapi.QueryBalanceRequest) auctionapi.Response {
	account := ledger.AccountID(req.Account)
	balance := s.ledger.BalanceOf(account)
	info := auctionapi.BalanceInfo{
		Account:        req.Account,
		Balance:        balance,
		BalanceDisplay: auctionapi.FormatAmount(balance),
	}
	if req.AssetID != 0 {
		info.AssetID = req.AssetID
		info.AssetBalance = s.ledger.AssetBalanceOf(account, ledger.AssetID(req.AssetID))
	}
	return auctionapi.Response{
		Type:    req.Type + "_response",
		Success: true,
		Balance: &info,
	}
}

// resolveHandle parses the auction ID and recomputes the escrow address from
// it; clients never supply the escrow, they only ever name the instance.
func (s *Server) resolveHandle(reqType, auctionID string) (auction.Handle, auctionapi.Response, bool) {
	id, err := uuid.Parse(auctionID)
	if err != nil {
		return auction.Handle{}, errorResponse(reqType, fmt.Sprintf("invalid auction id %q: %v", auctionID, err)), false
	}
	return auction.Handle{ID: id, Escrow: auction.EscrowAddress(id)}, auctionapi.Response{}, true
}

func (s *Server) infoResponse(reqType string, id uuid.UUID) auctionapi.Response {
	info, err := s.engine.GetAuction(id)
	if err != nil {
		return errorResponse(reqType, err.Error())
	}
	wire := infoToWire(info)
	return auctionapi.Response{
		Type:    reqType + "_response",
		Success: true,
		Auction: &wire,
	}
}

func infoToWire(info auction.Info) auctionapi.AuctionInfo {
	return auctionapi.AuctionInfo{
		AuctionID:       info.Handle.ID.String(),
		EscrowAddress:   string(info.Handle.Escrow),
		Seller:          string(info.Params.Seller),
		AssetID:         uint64(info.Params.AssetID),
		AssetAmount:     info.Params.AssetAmount,
		StartTime:       info.Params.StartTime,
		EndTime:         info.Params.EndTime,
		ReservePrice:    info.Params.ReservePrice,
		MinBidIncrement: info.Params.MinBidIncrement,
		RoyaltyPct:      info.Params.RoyaltyPct,
		AssetCreator:    string(info.Params.AssetCreator),
		Status:          info.Status.String(),
		HighestBidder:   string(info.HighestBidder),
		HighestBid:      info.HighestBid,
	}
}

func errorResponse(reqType, message string) auctionapi.Response {
	respType := "error"
	if reqType != "" {
		respType = reqType + "_response"
	}
	return auctionapi.Response{
		Type:    respType,
		Success: false,
		Message: message,
	}
}
