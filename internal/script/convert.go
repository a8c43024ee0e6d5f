package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/tickbus/internal/event"
	"github.com/dshills/tickbus/internal/event/events"
)

// payloadToLua converts a payload to the value handed to scripts as
// event.data. Framework payloads become tables with snake_case fields.
func payloadToLua(L *lua.LState, p event.Payload) lua.LValue {
	switch v := p.Value().(type) {
	case events.UpdatePackageCallbackData:
		return mapToTable(L, map[string]any{"type": v.Type.String()})
	case events.FoundUpdateFilesData:
		return mapToTable(L, map[string]any{
			"total_count":      v.TotalCount,
			"total_size_bytes": v.TotalSizeBytes,
		})
	case events.WebFileDownloadFailedData:
		return mapToTable(L, map[string]any{
			"file_name": v.FileName,
			"error":     v.Error,
		})
	case events.DownloadProgress:
		return mapToTable(L, map[string]any{
			"total_count":        v.TotalDownloadCount,
			"current_count":      v.CurrentDownloadCount,
			"total_size_bytes":   v.TotalDownloadSizeBytes,
			"current_size_bytes": v.CurrentDownloadSizeBytes,
			"fraction":           v.Fraction(),
		})
	case events.InitializeAssetsFinishData:
		return mapToTable(L, map[string]any{"finished": v.Finished})
	case events.ConfigReloadedData:
		return mapToTable(L, map[string]any{"path": v.Path})
	case events.ScriptErrorData:
		return mapToTable(L, map[string]any{
			"script":  v.Script,
			"message": v.Message,
		})
	default:
		return toLValue(L, v)
	}
}

// toLValue converts a Go value to a Lua value. Unknown types become their
// fmt representation.
func toLValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		tbl := L.NewTable()
		for i, item := range val {
			tbl.RawSetInt(i+1, toLValue(L, item))
		}
		return tbl
	case map[string]any:
		return mapToTable(L, val)
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}

func mapToTable(L *lua.LState, m map[string]any) *lua.LTable {
	tbl := L.NewTable()
	for k, v := range m {
		tbl.RawSetString(k, toLValue(L, v))
	}
	return tbl
}

// tableToMap converts a Lua table to a Go map. Non-string keys are
// formatted, so {1, 2} becomes {"1": 1, "2": 2}.
func tableToMap(tbl *lua.LTable) map[string]any {
	out := make(map[string]any)
	tbl.ForEach(func(k, v lua.LValue) {
		out[keyString(k)] = fromLValue(v)
	})
	return out
}

// fromLValue converts a Lua value to a Go value. Sequences become []any,
// other tables map[string]any. Functions and userdata are dropped.
func fromLValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		if n := val.MaxN(); n > 0 && n == countKeys(val) {
			arr := make([]any, n)
			for i := 1; i <= n; i++ {
				arr[i-1] = fromLValue(val.RawGetInt(i))
			}
			return arr
		}
		return tableToMap(val)
	default:
		return nil
	}
}

func countKeys(tbl *lua.LTable) int {
	n := 0
	tbl.ForEach(func(lua.LValue, lua.LValue) { n++ })
	return n
}

func keyString(k lua.LValue) string {
	if num, ok := k.(lua.LNumber); ok {
		return fmt.Sprintf("%v", float64(num))
	}
	return k.String()
}
