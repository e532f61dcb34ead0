package live

// indexHTML mirrors the server tree. The script applies snapshot and patch
// frames as encoded by package protocol.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="root"></div>
<script>
(function () {
  const mount = document.getElementById("root");
  const nodes = new Map();
  let seq = 0;

  function reader(buf) {
    const bytes = new Uint8Array(buf);
    let pos = 0;
    const r = {
      byte() { return bytes[pos++]; },
      uvarint() {
        let v = 0, mul = 1, b;
        do { b = bytes[pos++]; v += (b & 0x7f) * mul; mul *= 128; } while (b & 0x80);
        return v;
      },
      string() {
        const n = r.uvarint();
        const s = new TextDecoder().decode(bytes.subarray(pos, pos + n));
        pos += n;
        return s;
      },
      ids() {
        const out = [];
        for (let n = r.uvarint(); n > 0; n--) out.push(r.uvarint());
        return out;
      },
    };
    return r;
  }

  function parse(html) {
    const t = document.createElement("template");
    t.innerHTML = html;
    if (!t.content.firstChild) t.content.appendChild(document.createTextNode(""));
    return t.content;
  }

  function assign(node, ids) {
    let i = 0;
    (function visit(n) {
      if (n.nodeType === Node.COMMENT_NODE && n.data === "@@") return;
      nodes.set(ids[i++], n);
      n.childNodes.forEach(visit);
    })(node);
  }

  function place(node, parentId, prevId) {
    const parent = nodes.get(parentId);
    const prev = prevId ? nodes.get(prevId) : null;
    parent.insertBefore(node, prev ? prev.nextSibling : parent.firstChild);
  }

  function snapshot(r) {
    seq = r.uvarint();
    const frag = parse(r.string());
    const root = frag.firstChild;
    nodes.clear();
    assign(root, r.ids());
    mount.replaceChildren(root);
  }

  function patches(r) {
    const s = r.uvarint();
    if (s <= seq) return;
    seq = s;
    for (let n = r.uvarint(); n > 0; n--) {
      const op = r.byte(), id = r.uvarint();
      if (op === 1) {
        const parentId = r.uvarint(), prevId = r.uvarint();
        const node = parse(r.string()).firstChild;
        assign(node, r.ids());
        place(node, parentId, prevId);
      } else if (op === 2) {
        const parentId = r.uvarint(), prevId = r.uvarint();
        place(nodes.get(id), parentId, prevId);
      } else if (op === 3) {
        nodes.get(id).remove();
      }
    }
  }

  function connect() {
    const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    ws.binaryType = "arraybuffer";
    ws.onmessage = (ev) => {
      const r = reader(ev.data);
      const type = r.byte();
      if (type === 1) snapshot(r);
      else if (type === 2) patches(r);
    };
    ws.onclose = () => setTimeout(connect, 1000);
  }
  connect();
})();
</script>
</body>
</html>
`
