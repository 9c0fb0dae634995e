package config

import "fmt"

// PatchWidth is the byte width of a single ROM or RAM patch value.
type PatchWidth uint8

const (
	Width8 PatchWidth = iota
	Width16
	Width32
)

// Patch is one named, restorable memory edit (spec.md §3 "patches").
// Original is the ROM's vanilla value at ROMOffset, configured up front:
// the pre-battle stale-patch sweep writes it back wherever Value is still
// in place. Teardown of a patch applied this session restores the value
// read at apply time instead, not Original.
type Patch struct {
	Name     string
	ROMOffset uint32
	Value    uint32
	Width    PatchWidth
	Original uint32
	Applied  bool
}

// Battle holds the link-battle party/state addresses shared by the
// Battle Controller.
type Battle struct {
	PlayerParty   AddressRef
	EnemyParty    AddressRef
	PartyCount    AddressRef
	Flags         AddressRef
	ExecFlags     AddressRef
	Outcome       AddressRef
	InBattleByte  AddressRef
}

// BattleLink holds the link-cable engine addresses the Battle Controller
// patches and polls (spec.md §3 "battle_link").
type BattleLink struct {
	GetMultiplayerID      AddressRef
	ScriptLoad            AddressRef
	ScriptData            AddressRef
	TextData              AddressRef
	VarResult             AddressRef
	Var8001               AddressRef
	ReceivedRemote         AddressRef
	WirelessCommType       AddressRef
	BlockReceivedStatus    AddressRef
	BlockRecvBuffer        AddressRef
	LinkPlayers            AddressRef
	BattleResources        AddressRef
	BufferAOffset          uint32
	BufferBOffset          uint32
	// BufferStride is the byte distance between consecutive battlers'
	// slots within bufferA/bufferB (spec.md §4.I "BATTLER_BUFFER_STRIDE
	// = 512"). Zero means use the default.
	BufferStride uint32
	BattleMainFunc         AddressRef
	BeginBattleIntro       uint32
	DoBattleIntro          uint32
	SaveBlock2Ptr          AddressRef
	BattleCommunication    AddressRef
	BattlerControllerFuncs AddressRef
	BattlerAttacker        AddressRef
	BattlerTarget          AddressRef
	AbsentBattlerFlags     AddressRef
	EffectBattler          AddressRef

	// BlockSendBuffer is cleared once at battle start alongside the
	// block-receive buffer (spec.md §4.I "Start" step 5).
	BlockSendBuffer AddressRef
	// ScriptContext is the overworld script engine's run-state hook,
	// nulled once at battle start so a stale overworld script cannot
	// resume mid-battle (spec.md §4.I "Start" step 5, "Null the
	// script-engine hook").
	ScriptContext AddressRef
}

// Tasks describes the engine's scheduled-task table, used during the
// Starting stage to neutralize link-operation tasks that would otherwise
// race the controller (spec.md §4.I "Start" — "Kill any scheduled tasks
// whose function pointer lies in the ROM's link-operations range").
type Tasks struct {
	ListAddr   AddressRef
	Count      uint32
	Stride     uint32
	FuncOffset uint32
	DummyFunc  uint32
}

// Connection describes one map-border connection used by the Ghost
// Projector (spec.md §3 local player position "connections").
type Connection struct {
	Direction          Direction
	Offset             int32
	MapGroup, MapID    uint8
}

type Direction uint8

const (
	North Direction = iota
	South
	West
	East
)

// Constants bundles the fixed layout numbers spec.md §3 calls out by name.
type Constants struct {
	PartySizeBytes    int
	PokemonSizeBytes  int
	HPOffset          int
	BattleTypeLink       uint32
	BattleTypeIsMaster   uint32
	BattleTypeTrainer    uint32
	BattleTypeLinkInBattle uint32
	BattleTypeRecorded   uint32
	LinkOpsRangeStart  uint32
	LinkOpsRangeEnd    uint32
	SkipTargetState    uint8 // ROM-specific HandleStartBattle skip target; see spec.md §9 Open Questions

	// LinkPlayerStructSize is the byte stride between consecutive
	// entries in BattleLink.LinkPlayers (spec.md §4.I link-player name
	// structs).
	LinkPlayerStructSize uint32
	LinkPlayerNameLen    int
	LanguageEnglish      uint8

	// SaveBlock offsets locate player name/gender/trainer id within the
	// struct pointed to by BattleLink.SaveBlock2Ptr (spec.md §6
	// "Persisted state layout").
	SaveBlockNameOffset      uint32
	SaveBlockGenderOffset    uint32
	SaveBlockTrainerIDOffset uint32
}

// DefaultConstants mirrors the values named throughout spec.md §4.I for a
// Run & Bun style build (11-state HandleStartBattle, skip target 7).
func DefaultConstants() Constants {
	return Constants{
		PartySizeBytes:         600,
		PokemonSizeBytes:       100,
		HPOffset:               86,
		BattleTypeLink:         0x0002,
		BattleTypeIsMaster:     0x0001,
		BattleTypeTrainer:      0x0008,
		BattleTypeLinkInBattle: 0x2000,
		BattleTypeRecorded:     0x0800,
		SkipTargetState:        7,
		LinkPlayerStructSize:     32,
		LinkPlayerNameLen:        8,
		LanguageEnglish:          2,
		SaveBlockNameOffset:      0x0,
		SaveBlockGenderOffset:    0x8,
		SaveBlockTrainerIDOffset: 0xA,
	}
}

// AddressMap is the complete, immutable per-ROM configuration (spec.md §3
// "Address map (B)"). It is constructed once by the embedding application
// and never mutated; components only read from it.
type AddressMap struct {
	CB2Overworld    uint32
	CB2LoadMap      uint32
	CB2BattleMain   uint32
	CB2ReturnToField uint32
	// CB2BattleEntry is the battle-setup callback the Battle Controller
	// switches to at Start (CB2_InitBattle / CB2_HandleStartBattle,
	// spec.md §4.I "Start" step 8). Distinct from CB2BattleMain, which
	// the main battle loop runs under once setup is complete.
	CB2BattleEntry uint32
	// CB2LinkBattleEnd is the ROM's link-battle "results screen"
	// callback; the Battle Controller fast-forwards past it straight to
	// CB2_ReturnToField (spec.md §4.I "Natural end"). Zero disables the
	// skip.
	CB2LinkBattleEnd uint32

	Callback2Addr       uint32
	MainStateOffset     uint32
	SavedCallbackOffset uint32

	// LoadCurrentMapData is the address discovered or configured for the
	// warp trampoline to call (spec.md §4.G). Zero means "discover at
	// runtime by scanning cart ROM".
	LoadCurrentMapData uint32
	// TrampolineRegion is where the Warp Engine writes its synthesized
	// code: an unused cart ROM padding range, falling back to high
	// EWRAM when none is available.
	TrampolineRegion AddressRef
	TrampolineSize   uint32
	// WarpDestStruct is the runtime-discovered (or configured) address
	// of the game's internal warp-destination struct.
	WarpDestStruct      uint32
	SaveBlock2WarpOffset uint32

	PlayerX  AddressRef
	PlayerY  AddressRef
	MapID    AddressRef
	MapGroup AddressRef
	Facing   AddressRef
	CameraX  AddressRef
	CameraY  AddressRef

	Battle     Battle
	BattleLink BattleLink
	Tasks      Tasks

	Patches []Patch

	Const Constants
}

// ErrAddressMissing is returned by Validate for any AddressRef left at its
// zero value where a feature requires it. Per spec.md §7 this disables the
// dependent feature rather than aborting the whole configuration.
type ErrAddressMissing struct {
	Field string
}

func (e ErrAddressMissing) Error() string {
	return fmt.Sprintf("config: address missing for %s", e.Field)
}

// isZero reports whether ref was never set (a bare AddressRef{}).
func isZero(ref AddressRef) bool {
	return ref.Domain == 0 && ref.Root == 0 && len(ref.Offsets) == 0
}

// ValidateGhostTracking reports whether the fields the Camera Tracker and
// position sampler require are present.
func (m AddressMap) ValidateGhostTracking() error {
	for field, ref := range map[string]AddressRef{
		"PlayerX": m.PlayerX, "PlayerY": m.PlayerY,
		"MapID": m.MapID, "MapGroup": m.MapGroup,
		"CameraX": m.CameraX, "CameraY": m.CameraY,
	} {
		if isZero(ref) {
			return ErrAddressMissing{Field: field}
		}
	}
	return nil
}

// ValidateBattle reports whether the fields the Battle Controller requires
// are present.
func (m AddressMap) ValidateBattle() error {
	for field, ref := range map[string]AddressRef{
		"Battle.PlayerParty": m.Battle.PlayerParty,
		"Battle.EnemyParty":  m.Battle.EnemyParty,
		"Battle.ExecFlags":   m.Battle.ExecFlags,
		"Battle.Outcome":     m.Battle.Outcome,
		"BattleLink.BattleResources": m.BattleLink.BattleResources,
	} {
		if isZero(ref) {
			return ErrAddressMissing{Field: field}
		}
	}
	return nil
}
