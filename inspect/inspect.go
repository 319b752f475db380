// Package inspect implements the -inspect flag: a read-only TUI browser
// over a parsed *parser.Program, for checking how a source file resolved
// (procedures, locals, labels, DATA table) without generating code.
package inspect

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lookbusy1344/basicc/parser"
)

// Browser is the TUI application, structured as the teacher's debugger
// TUI: a tree of navigable nodes on the left, a detail panel on the
// right, both inside an application-level input capture for global keys.
type Browser struct {
	Prog *parser.Program

	App        *tview.Application
	Pages      *tview.Pages
	MainLayout *tview.Flex

	Tree   *tview.TreeView
	Detail *tview.TextView
	Status *tview.TextView
}

// Run builds and runs the inspector over prog. It blocks until the user
// quits (q or Ctrl-C).
func Run(prog *parser.Program) error {
	b := &Browser{
		Prog: prog,
		App:  tview.NewApplication(),
	}
	b.initializeViews()
	b.buildLayout()
	b.populateTree()
	b.setupKeyBindings()
	return b.App.SetRoot(b.Pages, true).SetFocus(b.Tree).Run()
}

func (b *Browser) initializeViews() {
	b.Tree = tview.NewTreeView()
	b.Tree.SetBorder(true).SetTitle(" Program ")

	b.Detail = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	b.Detail.SetBorder(true).SetTitle(" Detail ")

	b.Status = tview.NewTextView().
		SetDynamicColors(true)
	b.Status.SetBorder(true).SetTitle(" Keys ")
}

func (b *Browser) buildLayout() {
	content := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(b.Tree, 0, 1, true).
		AddItem(b.Detail, 0, 2, false)

	b.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(content, 0, 1, true).
		AddItem(b.Status, 3, 0, false)

	b.Pages = tview.NewPages().AddPage("main", b.MainLayout, true, true)
}

func (b *Browser) setupKeyBindings() {
	b.Status.SetText("[yellow]q[white] quit   [yellow]arrows/enter[white] navigate   [yellow]Ctrl-L[white] redraw")
	b.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyCtrlC:
			b.App.Stop()
			return nil
		case event.Key() == tcell.KeyCtrlL:
			b.App.Draw()
			return nil
		case event.Rune() == 'q':
			b.App.Stop()
			return nil
		}
		return event
	})
}

// populateTree builds the root tree: Globals, DATA table, and one node
// per procedure (locals and labels nested beneath each).
func (b *Browser) populateTree() {
	root := tview.NewTreeNode(rootLabel(b.Prog)).SetSelectable(false)
	b.Tree.SetRoot(root).SetCurrentNode(root)

	globals := tview.NewTreeNode(fmt.Sprintf("Globals (%d)", len(b.Prog.SymbolTable.All()))).
		SetReference(detailFn(func() string { return renderSymbols(b.Prog.SymbolTable.All()) }))
	root.AddChild(globals)

	data := tview.NewTreeNode(fmt.Sprintf("DATA table (%d)", len(b.Prog.Data))).
		SetReference(detailFn(func() string { return renderData(b.Prog) }))
	root.AddChild(data)

	for _, proc := range b.Prog.Procedures {
		root.AddChild(b.procedureNode(proc))
	}

	b.Tree.SetChangedFunc(func(node *tview.TreeNode) {
		if fn, ok := node.GetReference().(detailFn); ok {
			b.Detail.SetText(fn())
		} else {
			b.Detail.SetText("")
		}
	})
	if len(root.GetChildren()) > 0 {
		first := root.GetChildren()[0]
		b.Tree.SetCurrentNode(first)
		if fn, ok := first.GetReference().(detailFn); ok {
			b.Detail.SetText(fn())
		}
	}
}

// detailFn is stashed as a tree node's reference; selecting the node
// renders its detail panel lazily.
type detailFn func() string

func (b *Browser) procedureNode(proc *parser.Procedure) *tview.TreeNode {
	label := proc.Name
	if proc.Kind == parser.ProcFunction {
		label = fmt.Sprintf("FUNCTION %s", proc.Name)
	} else if proc.Name != "__main" {
		label = fmt.Sprintf("SUB %s", proc.Name)
	}
	node := tview.NewTreeNode(label).
		SetReference(detailFn(func() string { return renderProcedure(proc) })).
		SetExpanded(false)

	locals := tview.NewTreeNode(fmt.Sprintf("Locals (%d)", len(proc.Locals.All()))).
		SetReference(detailFn(func() string { return renderSymbols(proc.Locals.All()) }))
	node.AddChild(locals)

	labels := tview.NewTreeNode(fmt.Sprintf("Labels (%d)", len(proc.Labels))).
		SetReference(detailFn(func() string { return renderLabels(proc.Labels) }))
	node.AddChild(labels)

	return node
}

func rootLabel(prog *parser.Program) string {
	return fmt.Sprintf("Program (%d procedures)", len(prog.Procedures))
}

func renderSymbols(syms []*parser.VarSymbol) string {
	if len(syms) == 0 {
		return "[gray](none)[white]"
	}
	var sb strings.Builder
	for _, s := range syms {
		kind := "scalar"
		if s.IsArray {
			kind = fmt.Sprintf("array(%d dim)", s.ArrayDims)
		}
		scope := scopeName(s.Scope)
		fmt.Fprintf(&sb, "%-12s %-8s %-8s %-14s rbp%+d  %s\n",
			s.Name+s.Suffix, s.Type, kind, scope, s.Offset, s.Pos)
	}
	return sb.String()
}

func scopeName(sc parser.VarScope) string {
	switch sc {
	case parser.ScopeGlobal:
		return "global"
	case parser.ScopeLocal:
		return "local"
	case parser.ScopeParam:
		return "param"
	case parser.ScopeFuncReturn:
		return "funcret"
	default:
		return "?"
	}
}

func renderLabels(labels map[string]parser.Position) string {
	if len(labels) == 0 {
		return "[gray](none)[white]"
	}
	var sb strings.Builder
	for name, pos := range labels {
		fmt.Fprintf(&sb, "%-16s %s\n", name, pos)
	}
	return sb.String()
}

func renderData(prog *parser.Program) string {
	if len(prog.Data) == 0 {
		return "[gray](empty)[white]"
	}
	var sb strings.Builder
	for i, d := range prog.Data {
		switch d.Tag {
		case parser.DataInteger:
			fmt.Fprintf(&sb, "%4d  int    %d\n", i, d.Int)
		case parser.DataDouble:
			fmt.Fprintf(&sb, "%4d  double %g\n", i, d.Float)
		case parser.DataString:
			fmt.Fprintf(&sb, "%4d  string %q\n", i, d.Str)
		}
	}
	if len(prog.DataLabels) > 0 {
		sb.WriteString("\n[yellow]RESTORE labels:[white]\n")
		for label, idx := range prog.DataLabels {
			fmt.Fprintf(&sb, "%-16s -> %d\n", label, idx)
		}
	}
	return sb.String()
}

func renderProcedure(proc *parser.Procedure) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[yellow]%s[white]\n", proc.Name)
	if proc.Kind == parser.ProcFunction {
		fmt.Fprintf(&sb, "returns %s\n", proc.ReturnType)
	}
	if len(proc.Params) > 0 {
		sb.WriteString("params: ")
		parts := make([]string, len(proc.Params))
		for i, p := range proc.Params {
			parts[i] = fmt.Sprintf("%s %s", p.Name, p.Type)
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "%d statements\n", len(proc.Body))
	return sb.String()
}
