// Package templates renders the HTML pages of the table browser. Components
// live in the .templ files next to this one; run `templ generate` after
// editing them.
package templates

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/datatable/internal/core"
)

// DatasetGroup is one section of the dashboard.
type DatasetGroup struct {
	Name     string
	Datasets []core.DatasetInfo
}

// rawElement writes body unescaped inside tag. Only used for the constant
// stylesheet and script.
func rawElement(tag, body string) templ.Component {
	return templ.Raw("<" + tag + ">" + body + "</" + tag + ">")
}

func tablePath(key string) templ.SafeURL {
	return templ.URL("/tables/" + url.PathEscape(key))
}

func downloadPath(sessionID, format string) templ.SafeURL {
	return templ.URL("/api/sessions/" + url.PathEscape(sessionID) + "/download?format=" + format)
}

func datasetMeta(ds core.DatasetInfo) string {
	if ds.ServerSide {
		return fmt.Sprintf("%d columns, server-side", ds.Columns)
	}
	return fmt.Sprintf("%d columns, %d rows", ds.Columns, ds.Rows)
}

func showSelectToolbar(state core.State) bool {
	return len(state.Selected) > 0 && state.SelectToolbar != core.ToolbarNone
}

func selectionLabel(n int) string {
	return fmt.Sprintf("%d row(s) selected", n)
}

func selectedSet(state core.State) map[int]bool {
	out := make(map[int]bool, len(state.Selected))
	for _, idx := range state.Selected {
		out[idx] = true
	}
	return out
}

func sortArrow(dir core.SortDirection) string {
	switch dir {
	case core.SortAsc:
		return " ↑"
	case core.SortDesc:
		return " ↓"
	}
	return ""
}

// cellText formats the i-th value of a display row. Rows shorter than the
// column set render empty cells.
func cellText(row core.DisplayRow, i int) string {
	if i >= len(row.Data) {
		return ""
	}
	return core.FormatValue(row.Data[i])
}

func emptyColspan(state core.State) string {
	return strconv.Itoa(len(state.Columns) + 1)
}

func lastPage(state core.State) int {
	if state.RowsPerPage <= 0 || state.Count <= 0 {
		return 0
	}
	return (state.Count - 1) / state.RowsPerPage
}

func pagerSummary(state core.State) string {
	from, to := 0, 0
	if state.Count > 0 {
		from = state.Page*state.RowsPerPage + 1
		to = min(from+state.RowsPerPage-1, state.Count)
	}
	return fmt.Sprintf("%d-%d of %d", from, to, state.Count)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:0;background:#f7f7f8;color:#222}
main{max-width:1100px;margin:0 auto;padding:1.5rem}
table{width:100%;border-collapse:collapse;background:#fff}
th,td{padding:.5rem .75rem;border-bottom:1px solid #e3e3e6;text-align:left}
th.sortable{cursor:pointer}
tr[data-selected]{background:#eef4ff}
.cards{list-style:none;padding:0;display:grid;grid-template-columns:repeat(auto-fill,minmax(240px,1fr));gap:1rem}
.cards li{background:#fff;padding:1rem;border-radius:6px}
.meta{color:#777;font-size:.85rem}
.toolbar,.chips,.pager{display:flex;gap:.75rem;align-items:center;margin:.75rem 0}
.chip{background:#e6e6ea;border-radius:12px;padding:.2rem .6rem}
.alert{background:#fdecea;border:1px solid #f5c2c0;padding:.75rem;border-radius:6px}
.empty{color:#777;text-align:center}`

const tableScript = `(function(){
var bar=document.querySelector('.toolbar');var id=bar.dataset.session;
function call(method,path,body){
return fetch('/api/sessions/'+id+path,{method:method,headers:{'Content-Type':'application/json'},body:body?JSON.stringify(body):undefined})
.then(function(r){if(!r.ok){return r.json().then(function(e){alert(e.message+(e.action?'\n'+e.action:''));throw e;});}
return r.json();}).then(function(){location.search='?session='+encodeURIComponent(id);});}
document.querySelectorAll('th.sortable').forEach(function(th){th.onclick=function(){call('POST','/sort',{column:th.dataset.column});};});
document.querySelectorAll('[data-action=select]').forEach(function(cb){cb.onclick=function(e){
call('POST','/select',{dataIndex:+cb.closest('tr').dataset.index,extend:e.shiftKey});};});
document.querySelectorAll('[data-page]').forEach(function(b){b.onclick=function(){call('POST','/page',{page:+b.dataset.page});};});
var rpp=document.getElementById('rows-per-page');if(rpp){rpp.onchange=function(){call('POST','/page',{rowsPerPage:+rpp.value});};}
var del=document.querySelector('[data-action=delete]');if(del){del.onclick=function(){call('POST','/delete');};}
var reset=document.querySelector('[data-action=reset]');if(reset){reset.onclick=function(){call('POST','/filter/reset');};}
var search=document.getElementById('search');
search.onkeydown=function(e){if(e.key==='Enter'){call('POST','/search',{text:search.value});}};
})();`
