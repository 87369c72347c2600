package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Submitter executes signed instructions.
type Submitter interface {
	Submit(ctx context.Context, sub application.Submission) error
}

// Reader serves the read-only views of program state.
type Reader interface {
	Config(ctx context.Context) (domain.ConfigRecord, error)
	Account(ctx context.Context, key domain.Identity) (domain.Account, error)
	Quote(ctx context.Context, quoted int64) (application.QuotePreview, error)
}

type Server struct {
	submitter Submitter
	reader    Reader
	ping      func(ctx context.Context) error
	gatherer  prometheus.Gatherer
	timeout   time.Duration
}

func NewServer(submitter Submitter, reader Reader) *Server {
	return &Server{submitter: submitter, reader: reader, timeout: 5 * time.Second}
}

func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }
func (s *Server) SetGatherer(g prometheus.Gatherer)                 { s.gatherer = g }
func (s *Server) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

type submitRequest struct {
	Data      string   `json:"data"`
	Accounts  []string `json:"accounts"`
	Nonce     uint64   `json:"nonce"`
	Timestamp int64    `json:"timestamp"`
	Signature string   `json:"signature"`
}

type submitResponse struct {
	Status    string `json:"status"`
	Signature string `json:"signature"`
}

type configResponse struct {
	Initialized        bool   `json:"initialized"`
	TrustedPriceSource string `json:"trusted_price_source,omitempty"`
}

type accountResponse struct {
	Key      string `json:"key"`
	Lamports uint64 `json:"lamports"`
	Data     string `json:"data"`
}

type quoteResponse struct {
	QuotedAmount int64     `json:"quoted_amount"`
	Lamports     uint64    `json:"lamports"`
	Price        string    `json:"price"`
	Conf         uint64    `json:"conf"`
	PublishTime  time.Time `json:"publish_time"`
	PriceSource  string    `json:"price_source"`
}

func (s *Server) SubmitInstruction(w http.ResponseWriter, r *http.Request) {
	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	sub, err := body.toSubmission()
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	if err := s.submitter.Submit(ctx, sub); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Status: "ok", Signature: sub.Signature.String()})
}

func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	rec, err := s.reader.Config(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := configResponse{Initialized: rec.Initialized}
	if rec.Initialized {
		resp.TrustedPriceSource = rec.TrustedPriceSource.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) GetAccount(w http.ResponseWriter, r *http.Request) {
	key, err := domain.ParseIdentity(chi.URLParam(r, "key"))
	if err != nil {
		badRequest(w, "invalid account key")
		return
	}
	acc, err := s.reader.Account(r.Context(), key)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		Key:      acc.Key.String(),
		Lamports: acc.Lamports,
		Data:     base64.StdEncoding.EncodeToString(acc.Data),
	})
}

func (s *Server) GetQuote(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		badRequest(w, "amount must be a signed 64-bit integer")
		return
	}
	q, err := s.reader.Quote(r.Context(), amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{
		QuotedAmount: q.QuotedAmount,
		Lamports:     q.Lamports,
		Price:        q.Price.String(),
		Conf:         q.Conf,
		PublishTime:  q.PublishTime,
		PriceSource:  q.PriceSource.String(),
	})
}

func (b submitRequest) toSubmission() (application.Submission, error) {
	data, err := base64.StdEncoding.DecodeString(b.Data)
	if err != nil {
		return application.Submission{}, errors.New("data must be base64")
	}
	if len(b.Accounts) == 0 {
		return application.Submission{}, errors.New("accounts are required")
	}
	accounts := make([]domain.Identity, len(b.Accounts))
	for i, a := range b.Accounts {
		if accounts[i], err = domain.ParseIdentity(a); err != nil {
			return application.Submission{}, errors.New("accounts must be base58 public keys")
		}
	}
	sig, err := solana.SignatureFromBase58(b.Signature)
	if err != nil {
		return application.Submission{}, errors.New("signature must be base58")
	}
	if b.Timestamp <= 0 {
		return application.Submission{}, errors.New("timestamp must be unix seconds")
	}
	return application.Submission{
		Data:      data,
		Accounts:  accounts,
		Nonce:     b.Nonce,
		Timestamp: b.Timestamp,
		Signature: sig,
	}, nil
}
