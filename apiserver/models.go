package apiserver

import "github.com/jpsantos/simple86/vm"

// StateResponse is the JSON shape returned by GET /state and pushed over
// the WebSocket stream after every step: a snapshot of the register file
// plus a window of memory.
type StateResponse struct {
	AX uint16 `json:"ax"`
	BX uint16 `json:"bx"`
	CX uint16 `json:"cx"`
	BP int16  `json:"bp"`
	SP int16  `json:"sp"`
	IP int16  `json:"ip"`
	ZF bool   `json:"zf"`
	SF bool   `json:"sf"`

	Halted bool `json:"halted"`

	MemoryBase  int16    `json:"memoryBase"`
	MemoryWords []uint16 `json:"memoryWords"`
}

func toStateResponse(s vm.Snapshot) StateResponse {
	return StateResponse{
		AX: s.AX, BX: s.BX, CX: s.CX,
		BP: s.BP, SP: s.SP, IP: s.IP,
		ZF: s.ZF, SF: s.SF,
		Halted:      s.Halted,
		MemoryBase:  s.MemoryBase,
		MemoryWords: s.MemoryWords,
	}
}

// ErrorResponse is the JSON shape written for non-2xx responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
