package textbox

import "encoding/binary"

// Opcodes for the subset of the engine's script bytecode the injector
// emits. Values follow the ROM's own command table; only the commands
// this package needs are named here.
const (
	opLock         = 0x6A
	opLoadWord     = 0x0F
	opCallStd      = 0x09
	opCloseMessage = 0x68
	opRelease      = 0x6C
	opSetVar       = 0x16
	opEnd          = 0x02

	stdMsgboxYesNo   = 0x05
	stdMsgboxDefault = 0x02

	varResult = 0x8000
	var8001   = 0x8001
)

const wordBytes = 4

// buildYesNo returns the 3-word Yes/No prompt program: lock; loadword
// r0, &textAddr; callstd STD_MSGBOX_YESNO; closemessage; release; end
// (spec.md §4.F).
func buildYesNo(textAddr uint32) []byte {
	b := make([]byte, 0, 3*wordBytes)
	b = append(b, opLock)
	b = appendLoadWord(b, textAddr)
	b = append(b, opCallStd, stdMsgboxYesNo)
	b = append(b, opCloseMessage, opRelease, opEnd)
	return padToWords(b, 3)
}

// buildBlockingMessage returns the 5-word blocking-message program:
// same prefix through STD_MSGBOX_DEFAULT, then closemessage; setvar
// VAR_0x8001 = 1; release; end (spec.md §4.F).
func buildBlockingMessage(textAddr uint32) []byte {
	b := make([]byte, 0, 5*wordBytes)
	b = append(b, opLock)
	b = appendLoadWord(b, textAddr)
	b = append(b, opCallStd, stdMsgboxDefault)
	b = append(b, opCloseMessage)
	b = appendSetVar(b, var8001, 1)
	b = append(b, opRelease, opEnd)
	return padToWords(b, 5)
}

func appendLoadWord(b []byte, addr uint32) []byte {
	b = append(b, opLoadWord)
	var a [4]byte
	binary.LittleEndian.PutUint32(a[:], addr)
	return append(b, a[:]...)
}

func appendSetVar(b []byte, varID uint16, value uint16) []byte {
	b = append(b, opSetVar)
	var v [2]byte
	binary.LittleEndian.PutUint16(v[:], varID)
	b = append(b, v[:]...)
	binary.LittleEndian.PutUint16(v[:], value)
	return append(b, v[:]...)
}

func padToWords(b []byte, words int) []byte {
	want := words * wordBytes
	for len(b) < want {
		b = append(b, 0x00)
	}
	return b[:want]
}

// dataModeTable is the 12-word "Data mode" table the engine's
// script-load mechanism polls to begin running a script at scriptData+1
// (spec.md §4.F).
func dataModeTable(scriptData uint32) []byte {
	words := [12]uint32{0, 0, 513, 0, scriptData + 1, 0, 0, 0, 0, 0, 0, 0}
	out := make([]byte, 12*wordBytes)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*wordBytes:], w)
	}
	return out
}
