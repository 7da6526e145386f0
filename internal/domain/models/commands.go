package models

import "strings"

// MenuChoice enumerates the console menu entries.
type MenuChoice string

const (
	ChoiceList         MenuChoice = "1"
	ChoiceAdd          MenuChoice = "2"
	ChoiceUpdate       MenuChoice = "3"
	ChoiceDelete       MenuChoice = "4"
	ChoiceFind         MenuChoice = "5"
	ChoiceReload       MenuChoice = "6"
	ChoiceSearchByName MenuChoice = "7"
	ChoiceReport       MenuChoice = "8"
	ChoiceExit         MenuChoice = "0"
	ChoiceUnknown      MenuChoice = ""
)

// MenuEntry pairs a choice with its label.
type MenuEntry struct {
	Choice MenuChoice
	Label  string
}

// MenuEntries lists the menu in display order.
var MenuEntries = []MenuEntry{
	{ChoiceList, "List products"},
	{ChoiceAdd, "Add product"},
	{ChoiceUpdate, "Update product"},
	{ChoiceDelete, "Delete product"},
	{ChoiceFind, "Find product by ID"},
	{ChoiceReload, "Reload from file"},
	{ChoiceSearchByName, "Search products by name"},
	{ChoiceReport, "Stock report"},
	{ChoiceExit, "Exit"},
}

// ParseMenuChoice maps raw console input to a MenuChoice.
func ParseMenuChoice(input string) MenuChoice {
	normalized := strings.TrimSpace(input)
	for _, entry := range MenuEntries {
		if normalized == string(entry.Choice) {
			return entry.Choice
		}
	}
	return ChoiceUnknown
}
