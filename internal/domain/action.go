// Package domain - action and response shapes exposed to the transport layer
package domain

import "encoding/json"

// ActionType names the operations an engine dispatches on.
type ActionType string

const (
	ActionSpin           ActionType = "spin"
	ActionFreeSpinSelect ActionType = "freespin-select"
	ActionGamble         ActionType = "gamble"
	ActionInit           ActionType = "init"
)

// Gamble sub-events.
const (
	GambleInit    = "init"
	GambleDraw    = "draw"
	GambleCollect = "collect"
)

// Card colors for the gamble draw.
const (
	CardRed   = "red"
	CardBlack = "black"
)

// Action is the inbound shape: the outer transport establishes the
// authenticated (userId, gameId) pair before it reaches the core.
type Action struct {
	Type    ActionType      `json:"type"`
	UserID  string          `json:"userId"`
	GameID  string          `json:"gameId"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SpinPayload selects a bet denomination by index.
type SpinPayload struct {
	BetIndex int `json:"betIndex"`
}

// FreeSpinSelectPayload picks one of the configured free-spin options.
type FreeSpinSelectPayload struct {
	OptionIndex int `json:"optionIndex"`
}

// GamblePayload drives the gamble state machine.
type GamblePayload struct {
	Event     string `json:"event"`
	CardColor string `json:"cardColor,omitempty"`
}

// LineWin describes one paid payline.
type LineWin struct {
	Line     int   `json:"line"`
	SymbolID int   `json:"symbolId"`
	Count    int   `json:"count"`
	Win      int64 `json:"win"`
}

// FeatureResult is the feature-related slice of a response.
type FeatureResult struct {
	IsFreeSpin     bool             `json:"isFreeSpin,omitempty"`
	FreeSpins      int              `json:"freeSpins,omitempty"`
	Retriggered    bool             `json:"retriggered,omitempty"`
	PendingOptions []FreeSpinOption `json:"pendingOptions,omitempty"`
	Multipliers    map[string]int   `json:"multipliers,omitempty"`
	ScatterTotal   int64            `json:"scatterTotal,omitempty"`
	ScatterCount   int              `json:"scatterCount,omitempty"`
	BonusTriggered bool             `json:"bonusTriggered,omitempty"`
	BonusSpins     int              `json:"bonusSpins,omitempty"`
	BonusWin       int64            `json:"bonusWin,omitempty"`
	Gamble         *GambleState     `json:"gamble,omitempty"`
	GambleWon      *bool            `json:"gambleWon,omitempty"`
	DrawnCard      string           `json:"drawnCard,omitempty"`
}

// Response is the structured outcome of one handled action.
type Response struct {
	Success  bool           `json:"success"`
	Balance  int64          `json:"balance"`
	Bet      int64          `json:"bet,omitempty"`
	Matrix   [][]int        `json:"matrix,omitempty"`
	Wins     []LineWin      `json:"wins,omitempty"`
	TotalWin int64          `json:"totalWin,omitempty"`
	Features *FeatureResult `json:"features,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// InitData is the client bootstrap view returned by getInitData.
type InitData struct {
	GameID        string           `json:"gameId"`
	Name          string           `json:"name"`
	Columns       int              `json:"columns"`
	Rows          int              `json:"rows"`
	Paylines      [][]int          `json:"paylines"`
	Denominations []int64          `json:"denominations"`
	Balance       int64            `json:"balance"`
	Features      FeatureState     `json:"features"`
	Options       []FreeSpinOption `json:"freeSpinOptions,omitempty"`
	GambleEnabled bool             `json:"gambleEnabled"`
}
