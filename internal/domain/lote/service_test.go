package lote

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/saudetech/tiss/internal/domain/guia"
	"github.com/saudetech/tiss/internal/domain/operadora"
	"github.com/saudetech/tiss/internal/platform/fault"
	"github.com/saudetech/tiss/internal/platform/tiss"
)

// passthroughTx runs fn directly; the mock repos have no transactions.
func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockLoteRepo struct {
	items map[uuid.UUID]*Lote
}

func newMockLoteRepo() *mockLoteRepo {
	return &mockLoteRepo{items: make(map[uuid.UUID]*Lote)}
}

func (m *mockLoteRepo) Create(ctx context.Context, l *Lote) error {
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	cp := *l
	m.items[l.ID] = &cp
	return nil
}

func (m *mockLoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*Lote, error) {
	l, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("no rows in result set")
	}
	cp := *l
	return &cp, nil
}

func (m *mockLoteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockLoteRepo) List(ctx context.Context, status Status, limit, offset int) ([]*Lote, int, error) {
	var out []*Lote
	for _, l := range m.items {
		if status == "" || l.Status == status {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

func (m *mockLoteRepo) CountByDay(ctx context.Context, day time.Time) (int, error) {
	count := 0
	for _, l := range m.items {
		if l.CreatedAt.Year() == day.Year() && l.CreatedAt.YearDay() == day.YearDay() {
			count++
		}
	}
	return count, nil
}

func (m *mockLoteRepo) UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) error {
	l, ok := m.items[id]
	if !ok {
		return fmt.Errorf("no rows in result set")
	}
	l.Status = upd.Status
	if upd.Protocolo != nil {
		l.Protocolo = upd.Protocolo
	}
	if upd.XMLResposta != nil {
		l.XMLResposta = upd.XMLResposta
	}
	if upd.Erro != nil {
		l.Erro = upd.Erro
	}
	if upd.DataEnvio != nil {
		l.DataEnvio = upd.DataEnvio
	}
	return nil
}

func (m *mockLoteRepo) SetXML(ctx context.Context, id uuid.UUID, xml string, status Status) error {
	l, ok := m.items[id]
	if !ok {
		return fmt.Errorf("no rows in result set")
	}
	l.XMLContent = &xml
	l.Status = status
	return nil
}

type mockGuiaRepo struct {
	items map[uuid.UUID]*guia.Guia
}

func newMockGuiaRepo() *mockGuiaRepo {
	return &mockGuiaRepo{items: make(map[uuid.UUID]*guia.Guia)}
}

func (m *mockGuiaRepo) Create(ctx context.Context, g *guia.Guia) error {
	g.ID = uuid.New()
	cp := *g
	m.items[g.ID] = &cp
	return nil
}

func (m *mockGuiaRepo) GetByID(ctx context.Context, id uuid.UUID) (*guia.Guia, error) {
	g, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("no rows in result set")
	}
	cp := *g
	return &cp, nil
}

func (m *mockGuiaRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*guia.Guia, error) {
	var out []*guia.Guia
	for _, id := range ids {
		if g, ok := m.items[id]; ok {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockGuiaRepo) Update(ctx context.Context, g *guia.Guia) error {
	cp := *g
	m.items[g.ID] = &cp
	return nil
}

func (m *mockGuiaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockGuiaRepo) List(ctx context.Context, status guia.Status, limit, offset int) ([]*guia.Guia, int, error) {
	return nil, 0, nil
}

func (m *mockGuiaRepo) ListByLote(ctx context.Context, loteID uuid.UUID) ([]*guia.Guia, error) {
	var out []*guia.Guia
	for _, g := range m.items {
		if g.LoteID != nil && *g.LoteID == loteID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockGuiaRepo) AssignLote(ctx context.Context, loteID uuid.UUID, guiaIDs []uuid.UUID) error {
	for _, id := range guiaIDs {
		if g, ok := m.items[id]; ok {
			l := loteID
			g.LoteID = &l
		}
	}
	return nil
}

func (m *mockGuiaRepo) ReleaseLote(ctx context.Context, loteID uuid.UUID) error {
	for _, g := range m.items {
		if g.LoteID != nil && *g.LoteID == loteID {
			g.LoteID = nil
		}
	}
	return nil
}

func (m *mockGuiaRepo) UpdateStatusByLote(ctx context.Context, loteID uuid.UUID, status guia.Status) error {
	for _, g := range m.items {
		if g.LoteID != nil && *g.LoteID == loteID {
			g.Status = status
		}
	}
	return nil
}

type mockOperadoraRepo struct {
	items map[string]*operadora.Operadora
}

func newMockOperadoraRepo() *mockOperadoraRepo {
	return &mockOperadoraRepo{items: make(map[string]*operadora.Operadora)}
}

func (m *mockOperadoraRepo) Create(ctx context.Context, o *operadora.Operadora) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	m.items[o.RegistroANS] = o
	return nil
}

func (m *mockOperadoraRepo) GetByID(ctx context.Context, id uuid.UUID) (*operadora.Operadora, error) {
	for _, o := range m.items {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, fmt.Errorf("no rows in result set")
}

func (m *mockOperadoraRepo) GetByRegistroANS(ctx context.Context, registroANS string) (*operadora.Operadora, error) {
	return m.items[registroANS], nil
}

func (m *mockOperadoraRepo) Update(ctx context.Context, o *operadora.Operadora) error {
	m.items[o.RegistroANS] = o
	return nil
}

func (m *mockOperadoraRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockOperadoraRepo) List(ctx context.Context, limit, offset int) ([]*operadora.Operadora, int, error) {
	return nil, 0, nil
}

type fixture struct {
	svc        *Service
	lotes      *mockLoteRepo
	guias      *mockGuiaRepo
	operadoras *mockOperadoraRepo
}

func newFixture() *fixture {
	lotes := newMockLoteRepo()
	guias := newMockGuiaRepo()
	operadoras := newMockOperadoraRepo()
	svc := NewService(lotes, guias, operadoras)
	svc.runInTx = passthroughTx
	return &fixture{svc: svc, lotes: lotes, guias: guias, operadoras: operadoras}
}

func (f *fixture) addOperadora(registroANS string) *operadora.Operadora {
	o := &operadora.Operadora{
		Nome:            "Operadora Teste",
		RegistroANS:     registroANS,
		CodigoPrestador: "PREST01",
		WebService: &operadora.WebService{
			URL:      "https://ws.example/tiss",
			TipoAuth: operadora.AuthBasic,
			Usuario:  "user",
			Senha:    "pass",
		},
	}
	f.operadoras.Create(context.Background(), o)
	return o
}

func (f *fixture) addGuia(registroANS string, valor float64) *guia.Guia {
	g := &guia.Guia{
		NumeroGuia:           fmt.Sprintf("G-%04d", len(f.guias.items)+1),
		Tipo:                 tiss.TipoConsulta,
		Status:               guia.StatusValidada,
		RegistroANS:          registroANS,
		DataAtendimento:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		NumeroCarteira:       "CART-1",
		NomeBeneficiario:     "Maria da Silva",
		CodigoPrestador:      "PREST01",
		NomeProfissional:     "Dr. João Souza",
		ConselhoProfissional: "CRM",
		NumeroConselho:       "54321",
		UFConselho:           "SP",
		Procedimentos: []tiss.Procedimento{
			{Codigo: "10101012", Quantidade: 1, ValorUnitario: valor},
		},
		ValorTotal: valor,
	}
	f.guias.Create(context.Background(), g)
	return g
}

var numeroLotePattern = regexp.MustCompile(`^\d{8}-\d{4}$`)

func TestCreateLote_Success(t *testing.T) {
	f := newFixture()
	f.addOperadora("123456")
	g1 := f.addGuia("123456", 100.00)
	g2 := f.addGuia("123456", 200.00)

	result, err := f.svc.CreateLote(context.Background(), "123456", []uuid.UUID{g1.ID, g2.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.QuantidadeGuias != 2 {
		t.Errorf("expected 2 guias, got %d", result.QuantidadeGuias)
	}
	if result.ValorTotal != 300.00 {
		t.Errorf("expected valor total 300.00, got %.2f", result.ValorTotal)
	}
	if !numeroLotePattern.MatchString(result.NumeroLote) {
		t.Errorf("numero lote %q does not match YYYYMMDD-NNNN", result.NumeroLote)
	}

	l := f.lotes.items[result.LoteID]
	if l.Status != StatusRascunho {
		t.Errorf("expected status rascunho, got %s", l.Status)
	}
	if f.guias.items[g1.ID].LoteID == nil || *f.guias.items[g1.ID].LoteID != result.LoteID {
		t.Error("guia 1 was not assigned to the lote")
	}
}

func TestCreateLote_Sequencing(t *testing.T) {
	f := newFixture()
	f.addOperadora("123456")

	for i := 1; i <= 3; i++ {
		g := f.addGuia("123456", 50.00)
		result, err := f.svc.CreateLote(context.Background(), "123456", []uuid.UUID{g.ID})
		if err != nil {
			t.Fatalf("unexpected error on lote %d: %v", i, err)
		}
		wantSuffix := fmt.Sprintf("-%04d", i)
		if !strings.HasSuffix(result.NumeroLote, wantSuffix) {
			t.Errorf("lote %d: expected suffix %s, got %s", i, wantSuffix, result.NumeroLote)
		}
	}
}

func TestCreateLote_ValidationOrder(t *testing.T) {
	f := newFixture()
	f.addOperadora("123456")
	ctx := context.Background()

	if _, err := f.svc.CreateLote(ctx, "123456", nil); err == nil ||
		err.Error() != "Nenhuma guia selecionada para o lote" {
		t.Errorf("expected missing-guias error, got %v", err)
	}

	many := make([]uuid.UUID, 101)
	for i := range many {
		many[i] = uuid.New()
	}
	if _, err := f.svc.CreateLote(ctx, "123456", many); err == nil ||
		!strings.Contains(err.Error(), "não pode conter mais de 100 guias (recebidas 101)") {
		t.Errorf("expected batch-size error, got %v", err)
	}

	missing := uuid.New()
	if _, err := f.svc.CreateLote(ctx, "123456", []uuid.UUID{missing}); err == nil ||
		!strings.Contains(err.Error(), "Guia não encontrada") {
		t.Errorf("expected guia-not-found error, got %v", err)
	}

	other := f.addGuia("999999", 10.00)
	if _, err := f.svc.CreateLote(ctx, "123456", []uuid.UUID{other.ID}); err == nil ||
		err.Error() != "Todas as guias do lote devem pertencer à mesma operadora" {
		t.Errorf("expected mixed-insurer error, got %v", err)
	}

	sent := f.addGuia("123456", 10.00)
	f.guias.items[sent.ID].Status = guia.StatusEnviada
	if _, err := f.svc.CreateLote(ctx, "123456", []uuid.UUID{sent.ID}); !fault.IsKind(err, fault.State) {
		t.Errorf("expected state fault for enviada guia, got %v", err)
	}

	orphan := f.addGuia("777777", 10.00)
	if _, err := f.svc.CreateLote(ctx, "777777", []uuid.UUID{orphan.ID}); err == nil ||
		!strings.Contains(err.Error(), "Operadora com registro ANS 777777 não encontrada") {
		t.Errorf("expected operadora-not-found error, got %v", err)
	}
}

func TestCreateLote_GuiaAlreadyInLote(t *testing.T) {
	f := newFixture()
	f.addOperadora("123456")
	g := f.addGuia("123456", 10.00)

	if _, err := f.svc.CreateLote(context.Background(), "123456", []uuid.UUID{g.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := f.svc.CreateLote(context.Background(), "123456", []uuid.UUID{g.ID})
	if !fault.IsKind(err, fault.State) {
		t.Errorf("expected state fault for guia already batched, got %v", err)
	}
}

func TestDeleteLote_ByStatus(t *testing.T) {
	for _, status := range []Status{StatusRascunho, StatusPronto, StatusErro} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture()
			f.addOperadora("123456")
			g := f.addGuia("123456", 10.00)
			result, err := f.svc.CreateLote(context.Background(), "123456", []uuid.UUID{g.ID})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			f.lotes.items[result.LoteID].Status = status

			if err := f.svc.DeleteLote(context.Background(), result.LoteID); err != nil {
				t.Fatalf("expected delete from %s to succeed: %v", status, err)
			}
			if f.guias.items[g.ID].LoteID != nil {
				t.Error("expected guia to be released")
			}
		})
	}
}

func TestDeleteLote_RejectsEnviado(t *testing.T) {
	f := newFixture()
	f.addOperadora("123456")
	g := f.addGuia("123456", 10.00)
	result, err := f.svc.CreateLote(context.Background(), "123456", []uuid.UUID{g.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.lotes.items[result.LoteID].Status = StatusEnviado

	err = f.svc.DeleteLote(context.Background(), result.LoteID)
	if !fault.IsKind(err, fault.State) {
		t.Fatalf("expected state fault, got %v", err)
	}
	if !strings.Contains(err.Error(), "não pode ser excluído") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestUpdateStatus_TransitionTable(t *testing.T) {
	tests := []struct {
		from  Status
		to    Status
		legal bool
	}{
		{StatusRascunho, StatusPronto, true},
		{StatusRascunho, StatusEnviando, true},
		{StatusRascunho, StatusEnviado, false},
		{StatusPronto, StatusEnviando, true},
		{StatusPronto, StatusEnviado, false},
		{StatusEnviando, StatusEnviado, true},
		{StatusEnviando, StatusErro, true},
		{StatusEnviando, StatusRascunho, false},
		{StatusErro, StatusEnviando, true},
		{StatusErro, StatusEnviado, false},
		{StatusEnviado, StatusEnviando, false},
		{StatusEnviado, StatusErro, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_to_%s", tt.from, tt.to), func(t *testing.T) {
			f := newFixture()
			f.addOperadora("123456")
			g := f.addGuia("123456", 10.00)
			result, err := f.svc.CreateLote(context.Background(), "123456", []uuid.UUID{g.ID})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			f.lotes.items[result.LoteID].Status = tt.from

			err = f.svc.UpdateStatus(context.Background(), result.LoteID, StatusUpdate{Status: tt.to})
			if tt.legal && err != nil {
				t.Errorf("expected %s → %s to be legal: %v", tt.from, tt.to, err)
			}
			if !tt.legal {
				if !fault.IsKind(err, fault.State) {
					t.Errorf("expected state fault for %s → %s, got %v", tt.from, tt.to, err)
				}
			}
		})
	}
}

func TestUpdateStatus_SameStatusIsIdempotent(t *testing.T) {
	f := newFixture()
	f.addOperadora("123456")
	g := f.addGuia("123456", 10.00)
	result, err := f.svc.CreateLote(context.Background(), "123456", []uuid.UUID{g.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := "mensagem"
	if err := f.svc.UpdateStatus(context.Background(), result.LoteID, StatusUpdate{
		Status: StatusRascunho, Erro: &msg,
	}); err != nil {
		t.Fatalf("same-status merge should be idempotent: %v", err)
	}
	if f.lotes.items[result.LoteID].Erro == nil || *f.lotes.items[result.LoteID].Erro != "mensagem" {
		t.Error("expected erro field to be merged")
	}
}

func TestGerarXML(t *testing.T) {
	f := newFixture()
	f.addOperadora("123456")
	g := f.addGuia("123456", 100.00)
	result, err := f.svc.CreateLote(context.Background(), "123456", []uuid.UUID{g.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l, err := f.svc.GerarXML(context.Background(), result.LoteID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Status != StatusPronto {
		t.Errorf("expected status pronto, got %s", l.Status)
	}
	if l.XMLContent == nil || *l.XMLContent == "" {
		t.Fatal("expected XML content to be stored")
	}
	if !strings.Contains(*l.XMLContent, result.NumeroLote) {
		t.Error("expected XML to carry the numero lote")
	}
	if !strings.Contains(*l.XMLContent, "<ans:epilogo>") {
		t.Error("expected XML to carry the epilogo hash")
	}
}

func TestGerarXML_RejectsEnviado(t *testing.T) {
	f := newFixture()
	f.addOperadora("123456")
	g := f.addGuia("123456", 100.00)
	result, err := f.svc.CreateLote(context.Background(), "123456", []uuid.UUID{g.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.lotes.items[result.LoteID].Status = StatusEnviado

	if _, err := f.svc.GerarXML(context.Background(), result.LoteID); !fault.IsKind(err, fault.State) {
		t.Errorf("expected state fault, got %v", err)
	}
}
