package web

const loginHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>PDF Splitter - Login</title>
  <style>
    body { font-family: system-ui, sans-serif; background: #f3f4f6; display: flex; align-items: center; justify-content: center; height: 100vh; margin: 0; }
    .card { background: #fff; padding: 2rem; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,.15); width: 320px; }
    h1 { font-size: 1.2rem; margin: 0 0 1rem; }
    label { display: block; font-size: .85rem; margin: .7rem 0 .2rem; color: #374151; }
    input { width: 100%; padding: .5rem; border: 1px solid #d1d5db; border-radius: 4px; box-sizing: border-box; }
    button { margin-top: 1rem; width: 100%; padding: .6rem; background: #2563eb; color: #fff; border: 0; border-radius: 4px; cursor: pointer; }
    .error { color: #dc2626; font-size: .85rem; margin-top: .6rem; }
  </style>
</head>
<body>
  <form class="card" method="post" action="/web/login">
    <h1>PDF Splitter</h1>
    <label for="username">Username</label>
    <input id="username" name="username" autocomplete="username">
    <label for="password">Password</label>
    <input id="password" name="password" type="password" autocomplete="current-password">
    <button type="submit">Sign in</button>
    {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
  </form>
</body>
</html>`

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>PDF Splitter</title>
  <style>
    body { font-family: system-ui, sans-serif; background: #f3f4f6; margin: 0; color: #111827; }
    header { background: #1f2937; color: #fff; padding: .7rem 1.2rem; display: flex; justify-content: space-between; align-items: center; }
    header a { color: #9ca3af; text-decoration: none; font-size: .85rem; }
    main { display: grid; grid-template-columns: 1fr 340px; gap: 1rem; padding: 1rem; }
    section { background: #fff; border-radius: 8px; padding: 1rem; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
    h2 { font-size: .95rem; margin: 0 0 .7rem; color: #374151; }
    #pages { display: flex; flex-wrap: wrap; gap: .6rem; }
    .page { width: 120px; text-align: center; font-size: .75rem; color: #6b7280; }
    .page img { width: 100%; border: 1px solid #e5e7eb; border-radius: 4px; cursor: pointer; background: #fafafa; }
    .range { display: flex; align-items: center; gap: .5rem; padding: .35rem 0; border-bottom: 1px solid #f3f4f6; font-size: .85rem; }
    .dot { width: 12px; height: 12px; border-radius: 50%; flex: none; }
    .range button { margin-left: auto; background: none; border: 0; color: #9ca3af; cursor: pointer; }
    .row { display: flex; gap: .4rem; margin: .5rem 0; }
    .row input, .row select, .row textarea { flex: 1; padding: .4rem; border: 1px solid #d1d5db; border-radius: 4px; font-size: .85rem; }
    .btn { padding: .45rem .8rem; background: #2563eb; color: #fff; border: 0; border-radius: 4px; cursor: pointer; font-size: .85rem; }
    .btn.gray { background: #6b7280; }
    .btn:disabled { opacity: .5; cursor: default; }
    .stage { margin: .4rem 0; font-size: .8rem; }
    .bar { height: 6px; background: #e5e7eb; border-radius: 3px; overflow: hidden; }
    .bar i { display: block; height: 100%; background: #2563eb; transition: width .15s; }
    .stage.failed .bar i { background: #dc2626; }
    #downloads a { display: block; font-size: .85rem; margin: .3rem 0; }
    #status { font-size: .8rem; color: #6b7280; min-height: 1.2em; margin-top: .5rem; }
    #system { font-size: .78rem; color: #6b7280; }
    #system b { display: inline-block; width: .55em; height: .55em; border-radius: 50%; margin: 0 .3em 0 .9em; }
    #system b.ok { background: #22c55e; }
    #system b.bad { background: #ef4444; }
  </style>
</head>
<body>
  <header>
    <strong>PDF Splitter</strong>
    <span id="system"></span>
    <span>{{.Username}} &middot; <a href="/web/logout">logout</a></span>
  </header>
  <main>
    <section>
      <h2>Document</h2>
      <div class="row">
        <input type="file" id="file" accept="application/pdf">
        <button class="btn" onclick="upload()">Upload</button>
      </div>
      <div id="docinfo"></div>
      <div id="pages"></div>
    </section>
    <section>
      <h2>Split plan</h2>
      <div class="row">
        <input id="start" type="number" min="1" placeholder="From page">
        <input id="end" type="number" min="1" placeholder="To page">
        <button class="btn" onclick="addRange()">Add</button>
      </div>
      <div id="ranges"></div>
      <div class="row">
        <button class="btn gray" id="undo" onclick="mutate('/plan/undo')">Undo</button>
        <button class="btn gray" id="redo" onclick="mutate('/plan/redo')">Redo</button>
        <button class="btn gray" onclick="mutate('/plan/clear')">Clear</button>
      </div>
      <h2>Suggestions</h2>
      <div class="row">
        <textarea id="instructions" rows="2" placeholder="e.g. split by chapter"></textarea>
      </div>
      <button class="btn" onclick="suggested()">Suggest ranges</button>
      <h2>Split</h2>
      <div class="row">
        <select id="strategy" onchange="strategyChanged()">
          <option value="ranges">Selected ranges</option>
          <option value="chunks">Fixed chunks</option>
          <option value="expression">Page expression</option>
          <option value="suggested">Suggested</option>
        </select>
      </div>
      <div class="row" id="chunkRow" style="display:none">
        <input id="chunkSize" type="number" min="1" value="10" placeholder="Pages per part">
      </div>
      <div class="row" id="exprRow" style="display:none">
        <input id="expression" placeholder="e.g. 1-3, 7, 12-14">
      </div>
      <div class="row">
        <button class="btn" onclick="startSplit()">Start split</button>
        <button class="btn gray" onclick="resetSplit()">Reset</button>
      </div>
      <div id="progress"></div>
      <div id="downloads"></div>
      <div id="status"></div>
    </section>
  </main>
  <script>
    var sessionId = null;
    var processTimer = null;
    var suggestTimer = null;

    function api(method, path, body) {
      var opts = {method: method};
      if (body !== undefined) {
        opts.headers = {'Content-Type': 'application/json'};
        opts.body = JSON.stringify(body);
      }
      return fetch('/api/sessions/' + sessionId + path, opts).then(function (res) {
        if (res.status === 204) { return null; }
        return res.json().then(function (data) {
          if (!res.ok) { throw new Error(data.error || res.statusText); }
          return data;
        });
      });
    }

    function say(msg) { document.getElementById('status').textContent = msg || ''; }

    function loadSystem() {
      fetch('/api/status').then(function (res) { return res.json(); }).then(function (sum) {
        var el = document.getElementById('system');
        el.innerHTML = '';
        [['oracle', sum.oracle], ['cache', sum.cache], ['store', sum.store]].forEach(function (pair) {
          var dot = document.createElement('b');
          dot.className = pair[1].ok ? 'ok' : 'bad';
          dot.title = pair[1].message;
          el.appendChild(dot);
          el.appendChild(document.createTextNode(pair[0]));
        });
      }).catch(function () {});
    }

    function init() {
      fetch('/api/sessions', {method: 'POST'})
        .then(function (res) { return res.json(); })
        .then(function (snap) { sessionId = snap.id; render(snap); })
        .catch(function (err) { say('session error: ' + err.message); });
    }

    function refresh() {
      return api('GET', '').then(render).catch(function (err) { say(err.message); });
    }

    function render(snap) {
      var info = document.getElementById('docinfo');
      var pages = document.getElementById('pages');
      pages.innerHTML = '';
      if (!snap.loaded) {
        info.textContent = 'No document loaded yet.';
      } else {
        info.textContent = snap.doc_name + ' - ' + snap.page_count + ' pages';
        for (var p = 0; p < snap.page_count; p++) {
          var div = document.createElement('div');
          div.className = 'page';
          var img = document.createElement('img');
          img.src = '/api/sessions/' + sessionId + '/preview/' + p + '?width=160&r=' + (snap.rotations[p] || 0);
          img.title = 'Click to rotate';
          img.onclick = (function (page) { return function () { rotate(page); }; })(p);
          div.appendChild(img);
          var rot = snap.rotations[p] ? ' (' + snap.rotations[p] + '°)' : '';
          div.appendChild(document.createTextNode('Page ' + (p + 1) + rot));
          pages.appendChild(div);
        }
      }
      var list = document.getElementById('ranges');
      list.innerHTML = '';
      (snap.plan.ranges || []).forEach(function (r) {
        var row = document.createElement('div');
        row.className = 'range';
        var dot = document.createElement('span');
        dot.className = 'dot';
        dot.style.background = r.color;
        row.appendChild(dot);
        var label = document.createElement('span');
        label.textContent = r.label + ': pages ' + (r.start + 1) + '-' + (r.end + 1);
        label.ondblclick = function () { relabel(r.id, r.label); };
        row.appendChild(label);
        var del = document.createElement('button');
        del.textContent = '×';
        del.onclick = function () { removeRange(r.id); };
        row.appendChild(del);
        list.appendChild(row);
      });
      document.getElementById('undo').disabled = !snap.can_undo;
      document.getElementById('redo').disabled = !snap.can_redo;
    }

    function upload() {
      var input = document.getElementById('file');
      if (!input.files.length) { say('pick a PDF first'); return; }
      var form = new FormData();
      form.append('file', input.files[0]);
      say('uploading...');
      fetch('/api/sessions/' + sessionId + '/document', {method: 'POST', body: form})
        .then(function (res) { return res.json(); })
        .then(function (data) {
          if (data.error) { say(data.error); return; }
          say('');
          render(data);
        })
        .catch(function (err) { say('upload failed: ' + err.message); });
    }

    function addRange() {
      var start = parseInt(document.getElementById('start').value, 10);
      var end = parseInt(document.getElementById('end').value, 10);
      if (isNaN(start) || isNaN(end)) { say('enter both page numbers'); return; }
      api('POST', '/ranges', {start: start - 1, end: end - 1})
        .then(function () { say(''); refresh(); })
        .catch(function (err) { say(err.message); });
    }

    function removeRange(id) {
      api('DELETE', '/ranges/' + id).then(refresh).catch(function (err) { say(err.message); });
    }

    function relabel(id, current) {
      var label = prompt('Label for this part', current);
      if (label === null) { return; }
      api('PATCH', '/ranges/' + id, {label: label}).then(refresh).catch(function (err) { say(err.message); });
    }

    function rotate(page) {
      api('POST', '/pages/' + page + '/rotate').then(refresh).catch(function (err) { say(err.message); });
    }

    function mutate(path) {
      api('POST', path).then(function () { say(''); refresh(); }).catch(function (err) { say(err.message); });
    }

    function suggested() {
      var instructions = document.getElementById('instructions').value;
      api('POST', '/suggest', {instructions: instructions})
        .then(function () {
          say('asking the model...');
          clearInterval(suggestTimer);
          suggestTimer = setInterval(pollSuggest, 700);
        })
        .catch(function (err) { say(err.message); });
    }

    function pollSuggest() {
      api('GET', '/suggest').then(function (st) {
        if (st.state === 'pending') { return; }
        clearInterval(suggestTimer);
        if (st.state === 'applied') {
          say('applied ' + st.count + ' suggested ranges (' + st.provider + ')');
        } else if (st.state === 'failed') {
          say('suggestion failed: ' + st.error);
        }
        refresh();
      }).catch(function (err) { clearInterval(suggestTimer); say(err.message); });
    }

    function strategyChanged() {
      var s = document.getElementById('strategy').value;
      document.getElementById('chunkRow').style.display = s === 'chunks' ? '' : 'none';
      document.getElementById('exprRow').style.display = s === 'expression' ? '' : 'none';
    }

    function startSplit() {
      var body = {strategy: document.getElementById('strategy').value};
      if (body.strategy === 'chunks') {
        body.chunk_size = parseInt(document.getElementById('chunkSize').value, 10) || 0;
      }
      if (body.strategy === 'expression') {
        body.expression = document.getElementById('expression').value;
      }
      api('POST', '/split', body)
        .then(function (st) {
          say('');
          renderProcess(st);
          clearInterval(processTimer);
          processTimer = setInterval(pollProcess, 300);
        })
        .catch(function (err) { say(err.message); });
    }

    function pollProcess() {
      api('GET', '/process').then(function (st) {
        renderProcess(st);
        if (st.state === 'done' || st.state === 'failed') { clearInterval(processTimer); }
      }).catch(function (err) { clearInterval(processTimer); say(err.message); });
    }

    function renderProcess(st) {
      var box = document.getElementById('progress');
      box.innerHTML = '';
      (st.stages || []).forEach(function (stage) {
        var div = document.createElement('div');
        div.className = 'stage' + (stage.state === 'failed' ? ' failed' : '');
        div.appendChild(document.createTextNode(stage.name + ' - ' + stage.progress + '%'));
        var bar = document.createElement('div');
        bar.className = 'bar';
        var fill = document.createElement('i');
        fill.style.width = stage.progress + '%';
        bar.appendChild(fill);
        div.appendChild(bar);
        box.appendChild(div);
      });
      if (st.state === 'failed' && st.error) { say('split failed: ' + st.error); }
      var dl = document.getElementById('downloads');
      dl.innerHTML = '';
      (st.results || []).forEach(function (res) {
        var a = document.createElement('a');
        a.href = '/api/artifacts/' + res.handle;
        a.textContent = res.name + ' (' + res.page_count + ' pages)';
        dl.appendChild(a);
      });
      if (st.archive) {
        var zip = document.createElement('a');
        zip.href = '/api/artifacts/' + st.archive.handle;
        zip.textContent = st.archive.name + ' (everything)';
        dl.appendChild(zip);
      }
    }

    function resetSplit() {
      clearInterval(processTimer);
      api('POST', '/split/reset')
        .then(function () {
          document.getElementById('progress').innerHTML = '';
          document.getElementById('downloads').innerHTML = '';
          say('');
          refresh();
        })
        .catch(function (err) { say(err.message); });
    }

    init();
    loadSystem();
    setInterval(loadSystem, 30000);
  </script>
</body>
</html>`
