package aria

// Role is an ARIA role token. The zero value "" means "no role" (the node
// is elided, e.g. an <input type=hidden>).
type Role string

const (
	RoleGeneric       Role = "generic"
	RolePresentation  Role = "presentation"
	RoleNone          Role = "none"
	RoleLink          Role = "link"
	RoleButton        Role = "button"
	RoleGroup         Role = "group"
	RoleDialog        Role = "dialog"
	RoleHeading       Role = "heading"
	RoleBanner        Role = "banner"
	RoleContentInfo   Role = "contentinfo"
	RoleImg           Role = "img"
	RoleCheckbox      Role = "checkbox"
	RoleRadio         Role = "radio"
	RoleSlider        Role = "slider"
	RoleSpinButton    Role = "spinbutton"
	RoleSearchBox     Role = "searchbox"
	RoleCombobox      Role = "combobox"
	RoleTextbox       Role = "textbox"
	RoleListbox       Role = "listbox"
	RoleOption        Role = "option"
	RoleTable         Role = "table"
	RoleRowGroup      Role = "rowgroup"
	RoleRow           Role = "row"
	RoleCell          Role = "cell"
	RoleGridCell      Role = "gridcell"
	RoleRowHeader     Role = "rowheader"
	RoleColumnHeader  Role = "columnheader"
	RoleGrid          Role = "grid"
	RoleTreeGrid      Role = "treegrid"
	RoleList          Role = "list"
	RoleListItem      Role = "listitem"
	RoleNavigation    Role = "navigation"
	RoleMain          Role = "main"
	RoleComplementary Role = "complementary"
	RoleArticle       Role = "article"
	RoleRegion        Role = "region"
	RoleForm          Role = "form"
	RoleFigure        Role = "figure"
	RoleSeparator     Role = "separator"
	RoleProgressBar   Role = "progressbar"
	RoleTerm          Role = "term"
	RoleDefinition    Role = "definition"
	RoleTab           Role = "tab"
	RoleTabList       Role = "tablist"
	RoleTabPanel      Role = "tabpanel"
	RoleTooltip       Role = "tooltip"
	RoleMenuItem      Role = "menuitem"
	RoleTreeItem      Role = "treeitem"
	RoleSwitch        Role = "switch"
	RoleFragment      Role = "fragment"
)
