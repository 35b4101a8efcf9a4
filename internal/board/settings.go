package board

import (
	"fmt"

	"boardcore/pkg/geometry"
)

// Layer names used by the board.
const (
	LayerBoardOutlines = "brd_outlines"
	LayerTopCopper     = "top_cu"
	LayerBottomCopper  = "bot_cu"
	LayerTopPlacement  = "top_placement"
	LayerBotPlacement  = "bot_placement"
	LayerTopNames      = "top_names"
	LayerBotNames      = "bot_names"
	LayerHoles         = "holes"
)

// GridSettings describes the editor grid.
type GridSettings struct {
	Type     string          `json:"type" yaml:"type"`
	Interval geometry.Length `json:"interval" yaml:"interval"`
	Unit     string          `json:"unit" yaml:"unit"`
}

// Layer is one graphics layer with its display settings.
type Layer struct {
	Name             string `json:"name" yaml:"name"`
	Color            string `json:"color" yaml:"color"`
	ColorHighlighted string `json:"color_hl" yaml:"color_hl"`
	Visible          bool   `json:"visible" yaml:"visible"`
}

// LayerStack holds the copper layer count and the graphics layers.
type LayerStack struct {
	InnerLayers int     `json:"inner_layers"`
	Layers      []Layer `json:"-"`
}

// DefaultLayerStack returns a two layer stack.
func DefaultLayerStack() LayerStack {
	return LayerStack{Layers: []Layer{
		{Name: LayerBoardOutlines, Color: "#ffffffff", ColorHighlighted: "#ffffffff", Visible: true},
		{Name: LayerTopCopper, Color: "#c0ff0000", ColorHighlighted: "#ffff0000", Visible: true},
		{Name: LayerBottomCopper, Color: "#c00000ff", ColorHighlighted: "#ff0000ff", Visible: true},
		{Name: LayerTopPlacement, Color: "#bbffffff", ColorHighlighted: "#ffffffff", Visible: true},
		{Name: LayerBotPlacement, Color: "#bbffffff", ColorHighlighted: "#ffffffff", Visible: true},
		{Name: LayerTopNames, Color: "#96e0e0e0", ColorHighlighted: "#dcffffff", Visible: true},
		{Name: LayerBotNames, Color: "#96e0e0e0", ColorHighlighted: "#dcffffff", Visible: true},
		{Name: LayerHoles, Color: "#c0ffffff", ColorHighlighted: "#ffffffff", Visible: true},
	}}
}

// Layer returns the named layer.
func (s *LayerStack) Layer(name string) (*Layer, bool) {
	for i := range s.Layers {
		if s.Layers[i].Name == name {
			return &s.Layers[i], true
		}
	}
	return nil, false
}

// IsCopperLayer reports whether name is a copper layer of the stack.
func (s LayerStack) IsCopperLayer(name string) bool {
	if name == LayerTopCopper || name == LayerBottomCopper {
		return true
	}
	for i := 1; i <= s.InnerLayers; i++ {
		if name == fmt.Sprintf("in%d_cu", i) {
			return true
		}
	}
	return false
}

func (s LayerStack) clone() LayerStack {
	s.Layers = append([]Layer(nil), s.Layers...)
	return s
}

// DesignRules are the board wide clearance and size rules.
type DesignRules struct {
	MinCopperCopperClearance geometry.Length `json:"min_copper_copper_clearance"`
	MinCopperBoardClearance  geometry.Length `json:"min_copper_board_clearance"`
	MinCopperWidth           geometry.Length `json:"min_copper_width"`
	MinDrillDiameter         geometry.Length `json:"min_drill_diameter"`
	StopMaskClearance        geometry.Length `json:"stopmask_clearance"`
	RestringViaRatio         float64         `json:"restring_via_ratio"`
}

// DefaultDesignRules returns conservative defaults.
func DefaultDesignRules() DesignRules {
	return DesignRules{
		MinCopperCopperClearance: 200 * geometry.Micrometer,
		MinCopperBoardClearance:  300 * geometry.Micrometer,
		MinCopperWidth:           200 * geometry.Micrometer,
		MinDrillDiameter:         300 * geometry.Micrometer,
		StopMaskClearance:        100 * geometry.Micrometer,
		RestringViaRatio:         0.25,
	}
}

// FabricationOutputSettings configures gerber/excellon output naming.
type FabricationOutputSettings struct {
	OutputBasePath       string `json:"output_basepath"`
	SuffixDrills         string `json:"suffix_drills"`
	SuffixOutlines       string `json:"suffix_outlines"`
	SuffixCopperTop      string `json:"suffix_copper_top"`
	SuffixCopperBot      string `json:"suffix_copper_bot"`
	MergeDrillFiles      bool   `json:"merge_drill_files"`
	UseG85SlotCommand    bool   `json:"use_g85_slot_command"`
	EnableSolderPasteTop bool   `json:"enable_solder_paste_top"`
	EnableSolderPasteBot bool   `json:"enable_solder_paste_bot"`
}

// DefaultFabricationOutputSettings returns the default naming scheme.
func DefaultFabricationOutputSettings() FabricationOutputSettings {
	return FabricationOutputSettings{
		OutputBasePath:  "./output/{{VERSION}}/gerber/{{PROJECT}}",
		SuffixDrills:    "_DRILLS.drl",
		SuffixOutlines:  "_OUTLINES.gbr",
		SuffixCopperTop: "_COPPER-TOP.gbr",
		SuffixCopperBot: "_COPPER-BOTTOM.gbr",
	}
}
