package domsim

import (
	"github.com/dop251/goja"
)

// Run executes script in a fresh JS runtime wired to the page: reading
// document.cookie serves the jar, assigning it routes through SetCookie, and
// document.documentElement.style exposes setProperty and getPropertyValue.
// requestAnimationFrame queues into the page's frame queue.
func (p *Page) Run(script string) error {
	vm := goja.New()

	style := vm.NewObject()
	style.Set("setProperty", func(call goja.FunctionCall) goja.Value {
		p.SetHook(call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	style.Set("getPropertyValue", func(call goja.FunctionCall) goja.Value {
		value, _ := p.Hook(call.Argument(0).String())
		return vm.ToValue(value)
	})

	documentElement := vm.NewObject()
	documentElement.Set("style", style)

	document := vm.NewObject()
	document.Set("documentElement", documentElement)
	getter := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(p.CookieString())
	})
	setter := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			p.SetCookie(call.Argument(0).String())
		}
		return goja.Undefined()
	})
	if err := document.DefineAccessorProperty("cookie", getter, setter, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		return err
	}

	vm.Set("document", document)
	vm.Set("requestAnimationFrame", func(call goja.FunctionCall) goja.Value {
		if fn, ok := goja.AssertFunction(call.Argument(0)); ok {
			p.RequestFrame(func() {
				fn(goja.Undefined())
			})
		}
		return vm.ToValue(0)
	})

	_, err := vm.RunString(script)
	return err
}
