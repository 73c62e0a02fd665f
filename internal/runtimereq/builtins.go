package runtimereq

// runtimeModule is the concrete RuntimeModule every builtin capability
// materializes into; behavior is supplied per-instance rather than via one
// type per capability since every builtin has the same shape (name, stage,
// further requirements, a source generator).
type runtimeModule struct {
	name     string
	stage    RuntimeModuleStage
	requires Requirements
	generate func() string
}

func (m *runtimeModule) Name() string              { return m.name }
func (m *runtimeModule) Stage() RuntimeModuleStage { return m.stage }
func (m *runtimeModule) Requires() Requirements    { return m.requires }
func (m *runtimeModule) Generate() string          { return m.generate() }

// registerBuiltins wires every named capability from requirements.go to its
// runtime module, including the further requirements each one implies
// (spec.md §4.6 step 3). Ordering of Requires() unions does not affect the
// fixed point reached, only how many iterations it takes.
func registerBuiltins(r *Resolver) {
	r.Register(HasOwnProperty, func() RuntimeModule {
		return &runtimeModule{name: "has_own_property", stage: StageBasic, generate: genHasOwnProperty}
	})
	r.Register(DefinePropertyGetters, func() RuntimeModule {
		return &runtimeModule{name: "define_property_getters", stage: StageBasic, requires: HasOwnProperty, generate: genDefinePropertyGetters}
	})
	r.Register(Exports, func() RuntimeModule {
		return &runtimeModule{name: "exports", stage: StageBasic, requires: DefinePropertyGetters, generate: genExports}
	})
	r.Register(ModuleCache, func() RuntimeModule {
		return &runtimeModule{name: "module_cache", stage: StageBasic, generate: genModuleCache}
	})
	r.Register(ModuleFactories, func() RuntimeModule {
		return &runtimeModule{name: "module_factories", stage: StageBasic, generate: genModuleFactories}
	})
	r.Register(GlobalObject, func() RuntimeModule {
		return &runtimeModule{name: "global", stage: StageBasic, generate: genGlobalObject}
	})
	r.Register(ScriptNonce, func() RuntimeModule {
		return &runtimeModule{name: "script_nonce", stage: StageBasic, generate: genScriptNonce}
	})
	r.Register(PublicPath, func() RuntimeModule {
		return &runtimeModule{name: "public_path", stage: StageBasic, generate: genPublicPath}
	})
	r.Register(ESMInterop, func() RuntimeModule {
		return &runtimeModule{name: "esm_interop", stage: StageNormal, requires: DefinePropertyGetters, generate: genESMInterop}
	})
	r.Register(RequireFn, func() RuntimeModule {
		return &runtimeModule{name: "require", stage: StageNormal, requires: ModuleFactories | ModuleCache, generate: genRequireFn}
	})
	r.Register(CreateScript, func() RuntimeModule {
		return &runtimeModule{name: "create_script", stage: StageNormal, requires: ScriptNonce, generate: genCreateScript}
	})
	r.Register(EnsureChunk, func() RuntimeModule {
		return &runtimeModule{name: "ensure_chunk", stage: StageNormal, requires: RequireFn | PublicPath | CreateScript, generate: genEnsureChunk}
	})
	r.Register(HMRDownload, func() RuntimeModule {
		return &runtimeModule{name: "hmr_download", stage: StageAttach, requires: EnsureChunk, generate: genHMRDownload}
	})
	r.Register(HMRAccept, func() RuntimeModule {
		return &runtimeModule{name: "hmr_accept", stage: StageAttach, requires: RequireFn | ModuleCache | HMRDownload, generate: genHMRAccept}
	})
}

func genHasOwnProperty() string {
	return "function hasOwnProperty(obj, prop) { return Object.prototype.hasOwnProperty.call(obj, prop); }"
}

func genDefinePropertyGetters() string {
	return `function definePropertyGetters(exports, definition) {
  for (var key in definition) {
    if (hasOwnProperty(definition, key) && !hasOwnProperty(exports, key)) {
      Object.defineProperty(exports, key, { enumerable: true, get: definition[key] });
    }
  }
}`
}

func genExports() string {
	return "var exportsSymbol = Symbol.for('w.exports');"
}

func genModuleCache() string {
	return "var moduleCache = {};"
}

func genModuleFactories() string {
	return "var moduleFactories = {};"
}

func genGlobalObject() string {
	return "var globalObject = (function() { return this; })() || Function('return this')();"
}

func genScriptNonce() string {
	return "var scriptNonce = undefined;"
}

func genPublicPath() string {
	return "var publicPath = '';"
}

func genESMInterop() string {
	return `function esmInterop(module) {
  var ns = module && module.__esModule ? module : { default: module };
  if (!hasOwnProperty(ns, 'default')) {
    definePropertyGetters(ns, { default: function() { return module; } });
  }
  return ns;
}`
}

func genRequireFn() string {
	return `function requireFn(moduleId) {
  var cached = moduleCache[moduleId];
  if (cached !== undefined) { return cached.exports; }
  var module = moduleCache[moduleId] = { id: moduleId, exports: {} };
  moduleFactories[moduleId].call(module.exports, module, module.exports, requireFn);
  return module.exports;
}`
}

func genCreateScript() string {
	return `function createScript(url) {
  var script = document.createElement('script');
  if (scriptNonce) { script.setAttribute('nonce', scriptNonce); }
  script.src = url;
  return script;
}`
}

func genEnsureChunk() string {
	return `var installedChunks = {};
function ensureChunk(chunkId) {
  if (installedChunks[chunkId]) { return installedChunks[chunkId]; }
  return installedChunks[chunkId] = new Promise(function(resolve, reject) {
    var script = createScript(publicPath + chunkId + '.js');
    script.onload = function() { resolve(); };
    script.onerror = reject;
    document.head.appendChild(script);
  });
}`
}

func genHMRDownload() string {
	return "function hmrDownloadManifest() { return ensureChunk; }"
}

func genHMRAccept() string {
	return `function hmrAccept(moduleId, callback) {
  var module = moduleCache[moduleId];
  if (module) { module.hot = module.hot || { accept: callback }; }
}`
}
