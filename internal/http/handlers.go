package http

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"financeiro/internal/backup"
	"financeiro/internal/log"
	"financeiro/internal/notify"
	"financeiro/internal/services"
)

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.app.Snapshot()).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.app.Dashboard()).Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.app.Report()).Write(w)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	recent := []notify.Notification{}
	if s.recorder != nil {
		recent = s.recorder.Recent()
	}
	NewJSONResponse().JSON(recent).Write(w)
}

func (s *Server) handleFixedCostStatus(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.app.FixedCostStatuses()).Write(w)
}

func (s *Server) handleCardBill(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthQuery(r)
	if err != nil {
		s.fail(w, r, log.OpParse, BadRequestError("invalid month", err.Error()), log.ErrorTypeValidation, err)
		return
	}
	bill, err := s.app.CardBill(mux.Vars(r)["id"], month)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().JSON(bill).Write(w)
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	var in services.NewIncome
	if !s.decode(w, r, &in) {
		return
	}
	in.Description = sanitizeInput(in.Description)

	inc, err := s.app.AddIncome(r.Context(), in)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	s.logger.LogMutation(r.Context(), log.OpCreate, "income", inc.ID)
	NewJSONResponse().Status(http.StatusCreated).JSON(inc).Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.app.DeleteIncome(r.Context(), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	s.logger.LogMutation(r.Context(), log.OpDelete, "income", id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleAddFixedCost(w http.ResponseWriter, r *http.Request) {
	var in services.NewFixedCost
	if !s.decode(w, r, &in) {
		return
	}
	in.Description = sanitizeInput(in.Description)

	f, err := s.app.AddFixedCost(r.Context(), in)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	s.logger.LogMutation(r.Context(), log.OpCreate, "fixed_cost", f.ID)
	NewJSONResponse().Status(http.StatusCreated).JSON(f).Write(w)
}

func (s *Server) handleDeleteFixedCost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.app.DeleteFixedCost(r.Context(), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	s.logger.LogMutation(r.Context(), log.OpDelete, "fixed_cost", id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleToggleFixedCost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	f, err := s.app.ToggleFixedCostPaid(r.Context(), id)
	if err != nil {
		s.writeError(w, r, log.OpToggle, err)
		return
	}
	s.logger.LogMutation(r.Context(), log.OpToggle, "fixed_cost", id)
	NewJSONResponse().JSON(f).Write(w)
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	var in services.NewCard
	if !s.decode(w, r, &in) {
		return
	}
	in.Name = sanitizeInput(in.Name)

	c, err := s.app.AddCard(r.Context(), in)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	s.logger.LogMutation(r.Context(), log.OpCreate, "card", c.ID)
	NewJSONResponse().Status(http.StatusCreated).JSON(c).Write(w)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.app.DeleteCard(r.Context(), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	s.logger.LogMutation(r.Context(), log.OpDelete, "card", id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleRegisterPurchase(w http.ResponseWriter, r *http.Request) {
	var in services.NewPurchase
	if !s.decode(w, r, &in) {
		return
	}
	in.Description = sanitizeInput(in.Description)

	p, err := s.app.RegisterPurchase(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	s.logger.LogMutation(r.Context(), log.OpCreate, "purchase", p.ID)
	NewJSONResponse().Status(http.StatusCreated).JSON(p).Write(w)
}

func (s *Server) handleToggleInstallment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := pathIndex(r, "index")
	if err != nil {
		s.fail(w, r, log.OpParse, BadRequestError("invalid installment index", err.Error()), log.ErrorTypeValidation, err)
		return
	}

	inst, err := s.app.ToggleInstallment(r.Context(), vars["id"], vars["purchaseID"], index)
	if err != nil {
		s.writeError(w, r, log.OpToggle, err)
		return
	}
	s.logger.LogMutation(r.Context(), log.OpToggle, "installment", fmt.Sprintf("%s/%d", vars["purchaseID"], index))
	NewJSONResponse().JSON(inst).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := backup.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, r, log.OpExport, BadRequestError("invalid format", err.Error()), log.ErrorTypeValidation, err)
		return
	}

	name, raw, err := s.app.Export(r.Context(), f)
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	NewJSONResponse().
		Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name)).
		Raw(f.ContentType(), raw).
		Write(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, f, err := readImport(w, r)
	if err != nil {
		s.fail(w, r, log.OpImport, BadRequestError("invalid import request", err.Error()), log.ErrorTypeValidation, err)
		return
	}
	if err := s.app.Import(r.Context(), raw, f); err != nil {
		s.writeError(w, r, log.OpImport, err)
		return
	}
	s.logger.LogMutation(r.Context(), log.OpImport, "snapshot", "")
	NewJSONResponse().JSON(s.app.Snapshot()).Write(w)
}

// decode reads the JSON body into dst, writing a 400 response on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		s.fail(w, r, log.OpParse, BadRequestError("invalid request body", err.Error()), log.ErrorTypeValidation, err)
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp, kind := errorResponseFor(err)
	s.fail(w, r, op, resp, kind, err)
}

// fail logs err at a level matching the response and writes the response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, resp *JSONResponseBuilder, kind string, err error) {
	fields := log.NewFields().WithOperation(op)
	if resp.statusCode >= http.StatusInternalServerError {
		s.logger.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op, fields.WithErrorType(kind))
	} else {
		s.logger.LogWarn(r.Context(), "Request rejected", err, kind, fields)
	}
	resp.Write(w)
}
