package betslip

import (
	"math"
	"strconv"
	"strings"

	"github.com/radieske/sports-bet-placement-poc/internal/placement-service/model"
)

// ActionKind etiqueta a última ação registrada no slip, pro undo de um nível.
type ActionKind int

const (
	ActionAdd ActionKind = iota + 1
	ActionRemove
	ActionClear
)

// Action é o registro da última mutação. Selection vale pra Add/Remove;
// Removed carrega o conjunto esvaziado por um Clear.
type Action struct {
	Kind      ActionKind
	Selection model.Selection
	Removed   []model.Selection
}

// Slip é a máquina de estados do bilhete em montagem: conjunto ordenado de
// seleções únicas, stake cru e um log de uma ação. Puro e síncrono — nada
// de I/O aqui; o parsing numérico do stake é adiado até a derivação.
type Slip struct {
	selections []model.Selection
	stake      string
	last       *Action
}

func New() *Slip { return &Slip{} }

// Selections devolve uma cópia do conjunto atual, na ordem de inserção.
func (s *Slip) Selections() []model.Selection {
	out := make([]model.Selection, len(s.selections))
	copy(out, s.selections)
	return out
}

func (s *Slip) Len() int { return len(s.selections) }

func (s *Slip) Stake() string { return s.stake }

// SetStake guarda a string crua; entrada vazia ou não-numérica conta como
// zero nas derivações.
func (s *Slip) SetStake(value string) { s.stake = value }

// Add aplica semântica de toggle: se já existe seleção com a mesma
// (eventId, market, outcome), ela é removida em vez de duplicar, e a
// remoção vira a última ação. Nunca sobrevive duplicata.
func (s *Slip) Add(sel model.Selection) {
	for i, cur := range s.selections {
		if cur.SameBet(sel) {
			s.selections = append(s.selections[:i], s.selections[i+1:]...)
			s.last = &Action{Kind: ActionRemove, Selection: cur}
			return
		}
	}
	s.selections = append(s.selections, sel)
	s.last = &Action{Kind: ActionAdd, Selection: sel}
}

// Remove tira a seleção pelo id derivado; devolve false se não estava no slip.
func (s *Slip) Remove(id string) bool {
	for i, cur := range s.selections {
		if cur.ID == id {
			s.selections = append(s.selections[:i], s.selections[i+1:]...)
			s.last = &Action{Kind: ActionRemove, Selection: cur}
			return true
		}
	}
	return false
}

// Clear esvazia o slip, registrando o conjunto removido pro undo.
// Slip já vazio não registra ação.
func (s *Slip) Clear() {
	if len(s.selections) == 0 {
		return
	}
	removed := make([]model.Selection, len(s.selections))
	copy(removed, s.selections)
	s.selections = nil
	s.last = &Action{Kind: ActionClear, Removed: removed}
}

// Undo reverte exatamente a última ação registrada e limpa o log
// (histórico de um nível só). Devolve false quando não há o que desfazer.
func (s *Slip) Undo() bool {
	if s.last == nil {
		return false
	}
	a := *s.last
	s.last = nil

	switch a.Kind {
	case ActionAdd:
		for i, cur := range s.selections {
			if cur.ID == a.Selection.ID {
				s.selections = append(s.selections[:i], s.selections[i+1:]...)
				break
			}
		}
	case ActionRemove:
		if !s.hasID(a.Selection.ID) {
			s.selections = append(s.selections, a.Selection)
		}
	case ActionClear:
		// restaura mesclando por id, sem duplicar o que o usuário já re-adicionou
		for _, sel := range a.Removed {
			if !s.hasID(sel.ID) {
				s.selections = append(s.selections, sel)
			}
		}
	}
	return true
}

func (s *Slip) hasID(id string) bool {
	for _, cur := range s.selections {
		if cur.ID == id {
			return true
		}
	}
	return false
}

// CombinedOdds é o produto das odds de todas as seleções, arredondado a
// 2 casas; 0 com o slip vazio.
func (s *Slip) CombinedOdds() float64 {
	if len(s.selections) == 0 {
		return 0
	}
	total := 1.0
	for _, sel := range s.selections {
		total *= sel.Odds
	}
	return round2(total)
}

// PotentialWin multiplica o stake pelo CombinedOdds, arredondado a 2 casas.
func (s *Slip) PotentialWin() float64 {
	stake, err := strconv.ParseFloat(strings.TrimSpace(s.stake), 64)
	if err != nil || stake < 0 {
		stake = 0
	}
	return round2(stake * s.CombinedOdds())
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
