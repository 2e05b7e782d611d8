package application

import (
	tea "github.com/charmbracelet/bubbletea"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

// MenuItem is one line of a menu. Selecting it opens Submenu, runs Action,
// or applies Step. When Prompt is set the user is asked for Step's argument
// first.
type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
	Step    string
	Prompt  string
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

func buildMenuTree(m *Model) *Menu {
	root := &Menu{
		Title: "Main Menu",
		Items: []MenuItem{
			{Label: "Count rows", Step: "count"},
			{Label: "Show first rows", Step: "head", Prompt: "Number of rows"},
			{Label: "Transform ->", Submenu: loadTransform()},
			{Label: "Output format ->", Submenu: loadOutputFormat()},
			{Label: "Export ->", Submenu: loadExport(m)},
			{Label: "Reset to original", Step: "reset"},
			{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
		},
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func loadTransform() *Menu {
	return &Menu{
		Title: "Transform",
		Items: []MenuItem{
			{Label: "Filter by text", Step: "filter", Prompt: "Text to look for (empty keeps every row)"},
			{Label: "Select columns", Step: "select", Prompt: "Column names, comma separated"},
			{Label: "Remove duplicate rows", Step: "dedupe"},
			{Label: "Group and count by column", Step: "group", Prompt: "Column name"},
			{Label: "Back"},
		},
	}
}

func loadOutputFormat() *Menu {
	return &Menu{
		Title: "Output format",
		Items: []MenuItem{
			{Label: "Encoding", Step: "encoding", Prompt: "utf-8 or cp1251"},
			{Label: "Delimiter", Step: "delimiter", Prompt: "comma, semicolon, tab, space or colon"},
			{Label: "Back"},
		},
	}
}

func loadExport(m *Model) *Menu {
	items := []MenuItem{
		{Label: "Save result", Step: "save", Prompt: "Output file"},
		{Label: "Split into ZIP", Step: "split", Prompt: "Rows per file[,base name[,archive.zip]]"},
	}
	if m.push {
		items = append(items, MenuItem{Label: "Push to database", Step: "push", Prompt: "Table name"})
	}
	items = append(items, MenuItem{Label: "Back"})

	return &Menu{
		Title: "Export",
		Items: items,
	}
}
